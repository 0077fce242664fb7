package registry

import (
	"errors"
	"math/big"
	"time"
)

// ErrStaleFeed is returned when a feed's latest round is older than the
// allowed staleness window.
var ErrStaleFeed = errors.New("registry: stale price feed")

// PriceFeed abstracts an external price oracle round. Implementations return
// the latest answer scaled by the feed's decimals and the unix timestamp the
// round was published at.
type PriceFeed interface {
	LatestRound() (answer *big.Int, decimals uint8, updatedAt int64, err error)
}

// StaticFeed is a fixed-answer feed used in tests and local development.
type StaticFeed struct {
	Answer    *big.Int
	Decimals  uint8
	UpdatedAt int64
	Err       error
}

func (f StaticFeed) LatestRound() (*big.Int, uint8, int64, error) {
	if f.Err != nil {
		return nil, 0, 0, f.Err
	}
	answer := big.NewInt(0)
	if f.Answer != nil {
		answer = new(big.Int).Set(f.Answer)
	}
	return answer, f.Decimals, f.UpdatedAt, nil
}

// ClassifyVolatility maps an absolute basis-point move onto a tier. The
// round must have been published within maxAge of now or the feed is treated
// as stale.
func ClassifyVolatility(feed PriceFeed, refAnswer *big.Int, maxAge time.Duration, now time.Time) (VolatilityTier, error) {
	answer, _, updatedAt, err := feed.LatestRound()
	if err != nil {
		return TierLow, err
	}
	if maxAge > 0 && now.Unix()-updatedAt > int64(maxAge.Seconds()) {
		return TierLow, ErrStaleFeed
	}
	if refAnswer == nil || refAnswer.Sign() == 0 {
		return TierLow, nil
	}
	delta := new(big.Int).Sub(answer, refAnswer)
	delta.Abs(delta)
	bps := new(big.Int).Mul(delta, big.NewInt(maxBps))
	bps.Quo(bps, new(big.Int).Abs(refAnswer))
	switch {
	case bps.Cmp(big.NewInt(500)) <= 0:
		return TierLow, nil
	case bps.Cmp(big.NewInt(2000)) <= 0:
		return TierMid, nil
	default:
		return TierHigh, nil
	}
}
