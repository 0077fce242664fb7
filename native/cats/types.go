package cats

import (
	"math/big"
	"math/bits"

	"github.com/holiman/uint256"
)

// Clan is the alignment assigned at mint. It ties a cat to one of the
// price-tracked assets and drives no mechanics beyond classification.
type Clan uint8

const (
	ClanBTC Clan = iota
	ClanETH
	ClanSOL
	ClanLINK
	ClanDOGE
	ClanPEPE
)

func (c Clan) Valid() bool { return c <= ClanPEPE }

func (c Clan) String() string {
	switch c {
	case ClanBTC:
		return "btc"
	case ClanETH:
		return "eth"
	case ClanSOL:
		return "sol"
	case ClanLINK:
		return "link"
	case ClanDOGE:
		return "doge"
	case ClanPEPE:
		return "pepe"
	default:
		return "unknown"
	}
}

// MissionType selects the cooldown tier for a mission run.
type MissionType uint8

const (
	MissionDaily MissionType = iota
	MissionWeekly
	MissionMonthly
)

const missionTypeCount = 3

func (t MissionType) Valid() bool { return t < missionTypeCount }

func (t MissionType) String() string {
	switch t {
	case MissionDaily:
		return "daily"
	case MissionWeekly:
		return "weekly"
	case MissionMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// OracleImprint is the immutable birth-time trait bundle derived from the
// mint entropy. It is written exactly once, at mint.
type OracleImprint struct {
	Clan           Clan
	Temperament    uint8
	FortuneTier    uint8
	RarityTier     uint8
	BirthTrendBps  int32
	BirthVolBucket uint8
	EpochID        uint64
	Entropy        [32]byte
}

// GameState is the mutable per-token progress record.
type GameState struct {
	Power              uint64
	Season             uint32
	RulesVersion       uint32
	LastMissionDaily   int64
	LastMissionWeekly  int64
	LastMissionMonthly int64
	Rewarded           bool
}

// LastMission returns the last-run timestamp for the given mission type,
// zero meaning the mission has never run.
func (g *GameState) LastMission(t MissionType) int64 {
	switch t {
	case MissionDaily:
		return g.LastMissionDaily
	case MissionWeekly:
		return g.LastMissionWeekly
	case MissionMonthly:
		return g.LastMissionMonthly
	default:
		return 0
	}
}

func (g *GameState) setLastMission(t MissionType, ts int64) {
	switch t {
	case MissionDaily:
		g.LastMissionDaily = ts
	case MissionWeekly:
		g.LastMissionWeekly = ts
	case MissionMonthly:
		g.LastMissionMonthly = ts
	}
}

// TeleportState tracks cross-chain visitation for one token. VisitedChains is
// a 256-bit bitmap, one bit per chain id; bit zero is the home chain and is
// set at mint. Bits are only ever set, never cleared.
type TeleportState struct {
	IsAlive        bool
	CurrentChainID uint32
	VisitedChains  *uint256.Int
	TeleportCount  uint64
	LastTeleport   int64
}

// HasVisited reports whether the bitmap bit for the chain id is set.
func (t *TeleportState) HasVisited(chainID uint32) bool {
	if t.VisitedChains == nil {
		return false
	}
	word := chainID / 64
	bit := chainID % 64
	return t.VisitedChains[word]&(1<<bit) != 0
}

func (t *TeleportState) markVisited(chainID uint32) {
	if t.VisitedChains == nil {
		t.VisitedChains = new(uint256.Int)
	}
	word := chainID / 64
	bit := chainID % 64
	t.VisitedChains[word] |= 1 << bit
}

// VisitedCount returns the number of distinct chains visited, home included.
func (t *TeleportState) VisitedCount() uint32 {
	if t.VisitedChains == nil {
		return 0
	}
	count := 0
	for i := 0; i < 4; i++ {
		count += bits.OnesCount64(t.VisitedChains[i])
	}
	return uint32(count)
}

// Cat bundles the full per-token state. Imprint, game and teleport records
// are created atomically at mint and never recreated.
type Cat struct {
	TokenID  uint64
	Owner    [20]byte
	Imprint  OracleImprint
	Game     GameState
	Teleport TeleportState
}

// Clone returns a deep copy so callers cannot mutate engine state through
// returned records.
func (c *Cat) Clone() *Cat {
	if c == nil {
		return nil
	}
	out := *c
	if c.Teleport.VisitedChains != nil {
		out.Teleport.VisitedChains = new(uint256.Int).Set(c.Teleport.VisitedChains)
	} else {
		out.Teleport.VisitedChains = new(uint256.Int)
	}
	return &out
}

// Jackpot is the process-wide pooled-fee record. Claimed is one-way; once an
// award fires the balance restarts at zero under an incremented epoch.
type Jackpot struct {
	Epoch   uint64
	Balance *big.Int
	Claimed bool
	Winner  [20]byte
}

func (j *Jackpot) Clone() *Jackpot {
	if j == nil {
		return nil
	}
	out := *j
	if j.Balance != nil {
		out.Balance = new(big.Int).Set(j.Balance)
	} else {
		out.Balance = big.NewInt(0)
	}
	return &out
}

// ClanFeed binds a clan to an external price feed reference.
type ClanFeed struct {
	Clan    Clan
	Feed    [20]byte
	Enabled bool
}
