package cats

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"volatilitycats/core/events"
	"volatilitycats/native/bridge"
	nativecommon "volatilitycats/native/common"
)

const moduleName = "cats"

var (
	errNilState = errors.New("cats engine: state not configured")

	// ModuleAddress is the engine's own account. It holds the CHURR mint
	// authority so reward issuance cannot bypass the engine.
	ModuleAddress = func() [20]byte {
		var out [20]byte
		hash := ethcrypto.Keccak256([]byte("module/" + moduleName))
		copy(out[:], hash[12:])
		return out
	}()
)

type engineState interface {
	CatPut(*Cat) error
	CatGet(tokenID uint64) (*Cat, bool, error)
	NextCatID() (uint64, error)
	CatOwnerIndexAdd(owner [20]byte, tokenID uint64) error
	CatOwnerIndexRemove(owner [20]byte, tokenID uint64) error
	CatsByOwner(owner [20]byte) ([]uint64, error)
	JackpotGet() (*Jackpot, error)
	JackpotPut(*Jackpot) error
	ClanFeedPut(*ClanFeed) error
	ClanFeedGet(clan Clan) (*ClanFeed, bool, error)
	MintToken(symbol string, to [20]byte, amount *big.Int) error
	TokenBalance(symbol string, addr [20]byte) (*big.Int, error)
	HasRole(role string, addr []byte) bool
}

// Engine applies every game-state transition: minting, missions, reward
// claims and teleports. All calls are serialized behind one mutex so no
// operation ever observes a partially applied mutation.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	params    Params
	emitter   events.Emitter
	messenger bridge.Messenger
	pauses    nativecommon.PauseView
	nowFn     func() int64
	seedFn    func() [32]byte
}

// NewEngine creates an engine with the supplied parameters, a no-op emitter
// and a no-op messenger. Callers wire state and collaborators via setters.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:    params,
		emitter:   events.NoopEmitter{},
		messenger: bridge.Noop{},
		nowFn:     func() int64 { return time.Now().Unix() },
		seedFn:    defaultSeed,
	}, nil
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetMessenger configures the cross-chain transport. Passing nil resets to a
// no-op.
func (e *Engine) SetMessenger(m bridge.Messenger) {
	if m == nil {
		e.messenger = bridge.Noop{}
		return
	}
	e.messenger = m
}

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetSeedFunc overrides the block-identifier-equivalent entropy input so
// tests can pin the derived imprint.
func (e *Engine) SetSeedFunc(seed func() [32]byte) {
	if seed == nil {
		e.seedFn = defaultSeed
		return
	}
	e.seedFn = seed
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params { return e.params }

// TeleportConfig exposes the teleport constants for the query surface.
func (e *Engine) TeleportConfig() TeleportParams { return e.params.Teleport }

// JackpotConfig exposes the fee constants for the query surface.
func (e *Engine) JackpotConfig() JackpotParams {
	return JackpotParams{
		MintFee:        cloneBigInt(e.params.Jackpot.MintFee),
		GrandTourBonus: cloneBigInt(e.params.Jackpot.GrandTourBonus),
		TeleportFee:    cloneBigInt(e.params.Jackpot.TeleportFee),
	}
}

// RewardAmount exposes the fixed CHURR payout per reward claim.
func (e *Engine) RewardAmount() *big.Int { return cloneBigInt(e.params.RewardAmount) }

// RewardBalance returns an owner's CHURR balance from the token ledger.
func (e *Engine) RewardBalance(owner [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenBalance(TokenSymbol, owner)
}

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadCat(tokenID uint64) (*Cat, error) {
	if e.state == nil {
		return nil, errNilState
	}
	cat, ok, err := e.state.CatGet(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCatNotFound
	}
	return cat, nil
}

func (e *Engine) loadJackpot() (*Jackpot, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pot, err := e.state.JackpotGet()
	if err != nil {
		return nil, err
	}
	if pot == nil {
		pot = &Jackpot{Balance: big.NewInt(0)}
	}
	if pot.Balance == nil {
		pot.Balance = big.NewInt(0)
	}
	return pot, nil
}

// GetCat returns the full per-token record.
func (e *Engine) GetCat(tokenID uint64) (*Cat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cat, err := e.loadCat(tokenID)
	if err != nil {
		return nil, err
	}
	return cat.Clone(), nil
}

// CatsByOwner lists token ids held by the owner in ascending order.
func (e *Engine) CatsByOwner(owner [20]byte) ([]uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errNilState
	}
	return e.state.CatsByOwner(owner)
}

// JackpotBalance returns the current pool, zero after an award.
func (e *Engine) JackpotBalance() (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pot, err := e.loadJackpot()
	if err != nil {
		return nil, err
	}
	return cloneBigInt(pot.Balance), nil
}

// JackpotState returns the full singleton record.
func (e *Engine) JackpotState() (*Jackpot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pot, err := e.loadJackpot()
	if err != nil {
		return nil, err
	}
	return pot.Clone(), nil
}

// SetClanFeed binds a price feed to a clan. Admin-gated; the binding is
// informational and never blocks minting.
func (e *Engine) SetClanFeed(caller [20]byte, clan Clan, feed [20]byte, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errNilState
	}
	if !clan.Valid() {
		return ErrInvalidClan
	}
	if !e.state.HasRole(RoleGameAdmin, caller[:]) {
		return unauthorizedErr(ErrUnauthorized, caller)
	}
	if err := e.state.ClanFeedPut(&ClanFeed{Clan: clan, Feed: feed, Enabled: enabled}); err != nil {
		return err
	}
	e.emit(events.ClanFeedSet{Clan: uint8(clan), Feed: feed, Enabled: enabled})
	return nil
}

// ClanFeed returns the feed binding for a clan, if any.
func (e *Engine) ClanFeed(clan Clan) (*ClanFeed, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, false, errNilState
	}
	if !clan.Valid() {
		return nil, false, ErrInvalidClan
	}
	return e.state.ClanFeedGet(clan)
}

// TransferCat moves ownership atomically. Standard NFT transfer semantics:
// caller must be the current owner, and the owner index is updated in the
// same serialized operation.
func (e *Engine) TransferCat(caller, to [20]byte, tokenID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	cat, err := e.loadCat(tokenID)
	if err != nil {
		return err
	}
	if cat.Owner != caller {
		return unauthorizedErr(ErrNotTokenOwner, caller)
	}
	if to == caller {
		return ErrSelfTransfer
	}
	from := cat.Owner
	cat.Owner = to
	if err := e.state.CatPut(cat); err != nil {
		return err
	}
	if err := e.state.CatOwnerIndexRemove(from, tokenID); err != nil {
		return err
	}
	if err := e.state.CatOwnerIndexAdd(to, tokenID); err != nil {
		return err
	}
	e.emit(events.CatTransferred{TokenID: tokenID, From: from, To: to})
	return nil
}

func (e *Engine) dispatch(msg bridge.Message) {
	if e.messenger == nil {
		return
	}
	// State is already persisted; a transport failure must not unwind it.
	_ = e.messenger.Send(context.Background(), msg)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
