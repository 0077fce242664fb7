package cats

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/holiman/uint256"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"volatilitycats/core/events"
	nativecommon "volatilitycats/native/common"
)

// defaultSeed draws a fresh block-identifier-equivalent from the OS RNG. A
// chain deployment would substitute the parent block hash here.
func defaultSeed() [32]byte {
	var out [32]byte
	if _, err := rand.Read(out[:]); err != nil {
		// Deterministic fallback keeps mints alive if the OS RNG is
		// unavailable; traits lose unpredictability, not validity.
		out[31] = 1
	}
	return out
}

// DeriveImprint computes the birth traits for a token. The derivation is a
// pure function of its inputs so identical inputs always produce the same
// imprint: seed = keccak256(blockSeed || caller || tokenId || timestamp),
// with trait fields sliced out of the seed by modulo range-mapping.
func DeriveImprint(clan Clan, caller [20]byte, tokenID uint64, now int64, blockSeed [32]byte, epochWindow int64) OracleImprint {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], tokenID)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(now))

	seed := ethcrypto.Keccak256(blockSeed[:], caller[:], idBuf[:], tsBuf[:])

	var entropy [32]byte
	copy(entropy[:], seed)
	if entropy == ([32]byte{}) {
		// The stored entropy must never be zero; substitute a fixed
		// non-zero constant for the astronomically unlikely zero hash.
		entropy[31] = 1
	}

	trendSlice := binary.BigEndian.Uint32(seed[4:8])
	// Maps into [-10000, 10000] inclusive; 20001 residues centred on zero.
	trend := int32(trendSlice%20001) - 10000

	return OracleImprint{
		Clan:           clan,
		Temperament:    seed[0] % 3,
		FortuneTier:    seed[1] % 3,
		RarityTier:     seed[2] % 3,
		BirthTrendBps:  trend,
		BirthVolBucket: seed[8] % 3,
		EpochID:        uint64(now) / uint64(epochWindow),
		Entropy:        entropy,
	}
}

// MintRandomCat creates a new token owned by the caller. The oracle imprint
// is derived once and never rewritten; the teleport bitmap starts with the
// home-chain bit set; the mint fee is credited to the jackpot pool in the
// same operation.
func (e *Engine) MintRandomCat(caller [20]byte, clan Clan) (*Cat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !clan.Valid() {
		return nil, ErrInvalidClan
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if e.state == nil {
		return nil, errNilState
	}

	tokenID, err := e.state.NextCatID()
	if err != nil {
		return nil, err
	}
	now := e.now()

	cat := &Cat{
		TokenID: tokenID,
		Owner:   caller,
		Imprint: DeriveImprint(clan, caller, tokenID, now, e.seedFn(), e.params.EpochWindowSeconds),
		Game: GameState{
			Season:       e.params.Season,
			RulesVersion: e.params.RulesVersion,
		},
		Teleport: TeleportState{
			IsAlive:       true,
			VisitedChains: new(uint256.Int),
		},
	}
	cat.Teleport.markVisited(0)

	if err := e.state.CatPut(cat); err != nil {
		return nil, err
	}
	if err := e.state.CatOwnerIndexAdd(caller, tokenID); err != nil {
		return nil, err
	}

	if e.params.Jackpot.MintFee.Sign() > 0 {
		pot, err := e.loadJackpot()
		if err != nil {
			return nil, err
		}
		pot.Balance = pot.Balance.Add(pot.Balance, e.params.Jackpot.MintFee)
		if err := e.state.JackpotPut(pot); err != nil {
			return nil, err
		}
	}

	e.emit(events.CatMinted{
		TokenID: tokenID,
		Owner:   caller,
		Clan:    uint8(clan),
		EpochID: cat.Imprint.EpochID,
		Entropy: cat.Imprint.Entropy,
	})
	return cat.Clone(), nil
}
