package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type CatsMetrics struct {
	mints          *prometheus.CounterVec
	missions       *prometheus.CounterVec
	rewardsClaimed prometheus.Counter
	teleports      *prometheus.CounterVec
	jackpotBalance prometheus.Gauge
	jackpotAwards  prometheus.Counter
}

var (
	catsOnce     sync.Once
	catsRegistry *CatsMetrics
)

func Cats() *CatsMetrics {
	catsOnce.Do(func() {
		catsRegistry = &CatsMetrics{
			mints: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cats_minted_total",
				Help: "Count of cats minted by clan.",
			}, []string{"clan"}),
			missions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cats_missions_completed_total",
				Help: "Count of completed missions by type.",
			}, []string{"type"}),
			rewardsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cats_rewards_claimed_total",
				Help: "Count of one-shot reward claims.",
			}),
			teleports: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "cats_teleports_total",
				Help: "Count of teleports by target chain.",
			}, []string{"chain"}),
			jackpotBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "cats_jackpot_balance_wei",
				Help: "Current jackpot pool balance in wei.",
			}),
			jackpotAwards: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "cats_jackpot_awards_total",
				Help: "Count of Grand Tour jackpot payouts.",
			}),
		}
		prometheus.MustRegister(
			catsRegistry.mints,
			catsRegistry.missions,
			catsRegistry.rewardsClaimed,
			catsRegistry.teleports,
			catsRegistry.jackpotBalance,
			catsRegistry.jackpotAwards,
		)
	})
	return catsRegistry
}

func (m *CatsMetrics) ObserveMint(clan string) {
	if m == nil {
		return
	}
	if clan == "" {
		clan = "unknown"
	}
	m.mints.WithLabelValues(clan).Inc()
}

func (m *CatsMetrics) ObserveMission(missionType string) {
	if m == nil {
		return
	}
	if missionType == "" {
		missionType = "unknown"
	}
	m.missions.WithLabelValues(missionType).Inc()
}

func (m *CatsMetrics) ObserveRewardClaim() {
	if m == nil {
		return
	}
	m.rewardsClaimed.Inc()
}

func (m *CatsMetrics) ObserveTeleport(chain string) {
	if m == nil {
		return
	}
	if chain == "" {
		chain = "unknown"
	}
	m.teleports.WithLabelValues(chain).Inc()
}

func (m *CatsMetrics) SetJackpotBalance(wei float64) {
	if m == nil {
		return
	}
	m.jackpotBalance.Set(wei)
}

func (m *CatsMetrics) ObserveJackpotAward() {
	if m == nil {
		return
	}
	m.jackpotAwards.Inc()
}
