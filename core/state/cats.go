package state

import (
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"volatilitycats/native/cats"
)

var (
	catRecordPrefix = []byte("cat:")
	catOwnerPrefix  = []byte("cat-owner:")
	catCountKey     = ethcrypto.Keccak256([]byte("cat-count"))
	jackpotKey      = ethcrypto.Keccak256([]byte("jackpot"))
	clanFeedPrefix  = []byte("clan-feed:")
)

func catRecordKey(tokenID uint64) []byte {
	return ethcrypto.Keccak256(append(catRecordPrefix, encodeUint64(tokenID)...))
}

func catOwnerKey(owner [20]byte) []byte {
	return ethcrypto.Keccak256(append(catOwnerPrefix, owner[:]...))
}

func clanFeedKey(clan cats.Clan) []byte {
	return ethcrypto.Keccak256(append(clanFeedPrefix, byte(clan)))
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// trendBias shifts the signed birth trend into the non-negative range RLP
// can carry: stored value = trend + trendBias, so [-10000, 10000] maps onto
// [0, 20000].
const trendBias = 10000

// storedCat flattens a cats.Cat for RLP, which cannot carry signed integers:
// timestamps travel as big.Ints, the birth trend is bias-shifted and the
// visited bitmap becomes its minimal byte rendering.
type storedCat struct {
	TokenID        uint64
	Owner          [20]byte
	Clan           uint8
	Temperament    uint8
	FortuneTier    uint8
	RarityTier     uint8
	BirthTrendBps  uint32
	BirthVolBucket uint8
	EpochID        uint64
	Entropy        [32]byte
	Power          uint64
	Season         uint32
	RulesVersion   uint32
	LastDaily      *big.Int
	LastWeekly     *big.Int
	LastMonthly    *big.Int
	Rewarded       bool
	IsAlive        bool
	CurrentChainID uint32
	VisitedChains  []byte
	TeleportCount  uint64
	LastTeleport   *big.Int
}

func newStoredCat(c *cats.Cat) *storedCat {
	bitmap := c.Teleport.VisitedChains
	if bitmap == nil {
		bitmap = new(uint256.Int)
	}
	return &storedCat{
		TokenID:        c.TokenID,
		Owner:          c.Owner,
		Clan:           uint8(c.Imprint.Clan),
		Temperament:    c.Imprint.Temperament,
		FortuneTier:    c.Imprint.FortuneTier,
		RarityTier:     c.Imprint.RarityTier,
		BirthTrendBps:  uint32(int64(c.Imprint.BirthTrendBps) + trendBias),
		BirthVolBucket: c.Imprint.BirthVolBucket,
		EpochID:        c.Imprint.EpochID,
		Entropy:        c.Imprint.Entropy,
		Power:          c.Game.Power,
		Season:         c.Game.Season,
		RulesVersion:   c.Game.RulesVersion,
		LastDaily:      big.NewInt(c.Game.LastMissionDaily),
		LastWeekly:     big.NewInt(c.Game.LastMissionWeekly),
		LastMonthly:    big.NewInt(c.Game.LastMissionMonthly),
		Rewarded:       c.Game.Rewarded,
		IsAlive:        c.Teleport.IsAlive,
		CurrentChainID: c.Teleport.CurrentChainID,
		VisitedChains:  bitmap.Bytes(),
		TeleportCount:  c.Teleport.TeleportCount,
		LastTeleport:   big.NewInt(c.Teleport.LastTeleport),
	}
}

func (s *storedCat) toCat() (*cats.Cat, error) {
	if s == nil {
		return nil, fmt.Errorf("cats: nil storage record")
	}
	out := &cats.Cat{
		TokenID: s.TokenID,
		Owner:   s.Owner,
		Imprint: cats.OracleImprint{
			Clan:           cats.Clan(s.Clan),
			Temperament:    s.Temperament,
			FortuneTier:    s.FortuneTier,
			RarityTier:     s.RarityTier,
			BirthVolBucket: s.BirthVolBucket,
			EpochID:        s.EpochID,
			Entropy:        s.Entropy,
		},
		Game: cats.GameState{
			Power:        s.Power,
			Season:       s.Season,
			RulesVersion: s.RulesVersion,
			Rewarded:     s.Rewarded,
		},
		Teleport: cats.TeleportState{
			IsAlive:        s.IsAlive,
			CurrentChainID: s.CurrentChainID,
			VisitedChains:  new(uint256.Int).SetBytes(s.VisitedChains),
			TeleportCount:  s.TeleportCount,
		},
	}
	if !out.Imprint.Clan.Valid() {
		return nil, fmt.Errorf("cats: corrupt clan in storage record %d", s.TokenID)
	}
	out.Imprint.BirthTrendBps = int32(int64(s.BirthTrendBps) - trendBias)
	if s.LastDaily != nil {
		out.Game.LastMissionDaily = s.LastDaily.Int64()
	}
	if s.LastWeekly != nil {
		out.Game.LastMissionWeekly = s.LastWeekly.Int64()
	}
	if s.LastMonthly != nil {
		out.Game.LastMissionMonthly = s.LastMonthly.Int64()
	}
	if s.LastTeleport != nil {
		out.Teleport.LastTeleport = s.LastTeleport.Int64()
	}
	return out, nil
}

// CatPut persists the full per-token record.
func (m *Manager) CatPut(c *cats.Cat) error {
	if c == nil {
		return fmt.Errorf("cats: nil cat")
	}
	encoded, err := rlp.EncodeToBytes(newStoredCat(c))
	if err != nil {
		return err
	}
	return m.db.Put(catRecordKey(c.TokenID), encoded)
}

// CatGet loads the record for the token id. The boolean reports existence.
func (m *Manager) CatGet(tokenID uint64) (*cats.Cat, bool, error) {
	data, err := m.rawGet(catRecordKey(tokenID))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedCat)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, err
	}
	cat, err := stored.toCat()
	if err != nil {
		return nil, false, err
	}
	return cat, true, nil
}

// NextCatID allocates the next monotonically increasing token id, starting
// at zero.
func (m *Manager) NextCatID() (uint64, error) {
	var count uint64
	data, err := m.rawGet(catCountKey)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &count); err != nil {
			return 0, err
		}
	}
	encoded, err := rlp.EncodeToBytes(count + 1)
	if err != nil {
		return 0, err
	}
	if err := m.db.Put(catCountKey, encoded); err != nil {
		return 0, err
	}
	return count, nil
}

// CatCount returns the number of tokens minted so far.
func (m *Manager) CatCount() (uint64, error) {
	var count uint64
	data, err := m.rawGet(catCountKey)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		if err := rlp.DecodeBytes(data, &count); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (m *Manager) writeOwnerIndex(owner [20]byte, ids []uint64) error {
	encoded, err := rlp.EncodeToBytes(ids)
	if err != nil {
		return err
	}
	return m.db.Put(catOwnerKey(owner), encoded)
}

func (m *Manager) loadOwnerIndex(owner [20]byte) ([]uint64, error) {
	data, err := m.rawGet(catOwnerKey(owner))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var ids []uint64
	if err := rlp.DecodeBytes(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CatOwnerIndexAdd records the token under the owner's listing.
func (m *Manager) CatOwnerIndexAdd(owner [20]byte, tokenID uint64) error {
	ids, err := m.loadOwnerIndex(owner)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == tokenID {
			return nil
		}
	}
	ids = append(ids, tokenID)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return m.writeOwnerIndex(owner, ids)
}

// CatOwnerIndexRemove drops the token from the owner's listing.
func (m *Manager) CatOwnerIndexRemove(owner [20]byte, tokenID uint64) error {
	ids, err := m.loadOwnerIndex(owner)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, id := range ids {
		if id != tokenID {
			filtered = append(filtered, id)
		}
	}
	return m.writeOwnerIndex(owner, filtered)
}

// CatsByOwner returns the owner's token ids in ascending order.
func (m *Manager) CatsByOwner(owner [20]byte) ([]uint64, error) {
	ids, err := m.loadOwnerIndex(owner)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

type storedJackpot struct {
	Epoch   uint64
	Balance *big.Int
	Claimed bool
	Winner  [20]byte
}

// JackpotGet loads the singleton pool record, nil when never written.
func (m *Manager) JackpotGet() (*cats.Jackpot, error) {
	data, err := m.rawGet(jackpotKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	stored := new(storedJackpot)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, err
	}
	balance := big.NewInt(0)
	if stored.Balance != nil {
		balance = new(big.Int).Set(stored.Balance)
	}
	return &cats.Jackpot{
		Epoch:   stored.Epoch,
		Balance: balance,
		Claimed: stored.Claimed,
		Winner:  stored.Winner,
	}, nil
}

// JackpotPut persists the singleton pool record.
func (m *Manager) JackpotPut(j *cats.Jackpot) error {
	if j == nil {
		return fmt.Errorf("cats: nil jackpot")
	}
	balance := big.NewInt(0)
	if j.Balance != nil {
		balance = new(big.Int).Set(j.Balance)
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("cats: negative jackpot balance")
	}
	encoded, err := rlp.EncodeToBytes(&storedJackpot{
		Epoch:   j.Epoch,
		Balance: balance,
		Claimed: j.Claimed,
		Winner:  j.Winner,
	})
	if err != nil {
		return err
	}
	return m.db.Put(jackpotKey, encoded)
}

type storedClanFeed struct {
	Clan    uint8
	Feed    [20]byte
	Enabled bool
}

// ClanFeedPut persists a clan→feed binding.
func (m *Manager) ClanFeedPut(f *cats.ClanFeed) error {
	if f == nil {
		return fmt.Errorf("cats: nil clan feed")
	}
	encoded, err := rlp.EncodeToBytes(&storedClanFeed{
		Clan:    uint8(f.Clan),
		Feed:    f.Feed,
		Enabled: f.Enabled,
	})
	if err != nil {
		return err
	}
	return m.db.Put(clanFeedKey(f.Clan), encoded)
}

// ClanFeedGet loads a clan→feed binding. The boolean reports existence.
func (m *Manager) ClanFeedGet(clan cats.Clan) (*cats.ClanFeed, bool, error) {
	data, err := m.rawGet(clanFeedKey(clan))
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	stored := new(storedClanFeed)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, err
	}
	return &cats.ClanFeed{
		Clan:    cats.Clan(stored.Clan),
		Feed:    stored.Feed,
		Enabled: stored.Enabled,
	}, true, nil
}

// MintToken satisfies the engine's reward-ledger dependency: the engine
// module address is the registered mint authority for CHURR, so issuance
// cannot bypass it.
func (m *Manager) MintToken(symbol string, to [20]byte, amount *big.Int) error {
	return m.MintTokenAs(cats.ModuleAddress[:], symbol, to[:], amount)
}

// TokenBalance adapts Balance to the engine's array-address view.
func (m *Manager) TokenBalance(symbol string, addr [20]byte) (*big.Int, error) {
	return m.Balance(addr[:], symbol)
}
