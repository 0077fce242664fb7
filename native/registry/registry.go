package registry

import (
	"errors"
	"fmt"
	"sync"

	"volatilitycats/core/events"
	"volatilitycats/native/common"
)

const moduleName = "registry"

const maxBps = 10_000

var errNilState = errors.New("registry: state not configured")

var (
	assetRecordPrefix = []byte("registry/asset/")
	assetListKey      = []byte("registry/assets")
)

func assetRecordKey(id AssetID) []byte {
	return append(append([]byte(nil), assetRecordPrefix...), id[:]...)
}

// registryState is the slice of the state manager the registry depends on.
type registryState interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
	HasRole(role string, addr []byte) bool
}

// Registry maintains the asset/feed catalogue. Mutations require the
// registry admin role; reads are open.
type Registry struct {
	mu      sync.Mutex
	state   registryState
	emitter events.Emitter
	pauses  common.PauseView
}

// NewRegistry constructs a registry with no state or emitter bound.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState binds the registry to the state manager.
func (r *Registry) SetState(s registryState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// SetEmitter installs the event sink. A nil emitter restores the no-op sink.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	r.emitter = emitter
}

// SetPauses wires the module pause view.
func (r *Registry) SetPauses(p common.PauseView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauses = p
}

func (r *Registry) ensureActive() error {
	if r.state == nil {
		return errNilState
	}
	return common.Guard(r.pauses, moduleName)
}

func (r *Registry) requireAdmin(caller [20]byte) error {
	if !r.state.HasRole(RoleRegistryAdmin, caller[:]) {
		return unauthorizedErr(caller)
	}
	return nil
}

func validateConfig(cfg AssetConfig) error {
	if !cfg.Tier.Valid() {
		return fmt.Errorf("%w: unknown volatility tier %d", ErrInvalidAsset, cfg.Tier)
	}
	if cfg.Decimals > 18 {
		return fmt.Errorf("%w: decimals %d exceeds 18", ErrInvalidAsset, cfg.Decimals)
	}
	if cfg.MaxExposureBps > maxBps {
		return fmt.Errorf("%w: exposure cap %d exceeds %d bps", ErrInvalidAsset, cfg.MaxExposureBps, maxBps)
	}
	if cfg.Feed == ([20]byte{}) {
		return fmt.Errorf("%w: zero feed address", ErrInvalidAsset)
	}
	return nil
}

type storedAsset struct {
	Feed           [20]byte
	Decimals       uint8
	Tier           uint8
	MaxExposureBps uint32
	Enabled        bool
}

func (r *Registry) loadAsset(id AssetID) (*AssetConfig, bool, error) {
	stored := new(storedAsset)
	ok, err := r.state.KVGet(assetRecordKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &AssetConfig{
		Feed:           stored.Feed,
		Decimals:       stored.Decimals,
		Tier:           VolatilityTier(stored.Tier),
		MaxExposureBps: stored.MaxExposureBps,
		Enabled:        stored.Enabled,
	}, true, nil
}

func (r *Registry) writeAsset(id AssetID, cfg *AssetConfig) error {
	return r.state.KVPut(assetRecordKey(id), &storedAsset{
		Feed:           cfg.Feed,
		Decimals:       cfg.Decimals,
		Tier:           uint8(cfg.Tier),
		MaxExposureBps: cfg.MaxExposureBps,
		Enabled:        cfg.Enabled,
	})
}

// AddAsset registers a new asset with enabled=true. It fails when the id is
// already present so feed rotations must go through UpdateAsset.
func (r *Registry) AddAsset(caller [20]byte, id AssetID, cfg AssetConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureActive(); err != nil {
		return err
	}
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if _, exists, err := r.loadAsset(id); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %x", ErrAssetExists, id[:8])
	}
	cfg.Enabled = true
	if err := r.writeAsset(id, &cfg); err != nil {
		return err
	}
	if err := r.state.KVAppend(assetListKey, id[:]); err != nil {
		return err
	}
	r.emitter.Emit(events.AssetAdded{
		AssetID:  id,
		Feed:     cfg.Feed,
		Decimals: cfg.Decimals,
		Tier:     uint8(cfg.Tier),
	})
	return nil
}

// UpdateAsset overwrites the mutable fields of an existing asset. The
// enabled flag is preserved; use SetAssetEnabled to flip it.
func (r *Registry) UpdateAsset(caller [20]byte, id AssetID, cfg AssetConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureActive(); err != nil {
		return err
	}
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}
	current, exists, err := r.loadAsset(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %x", ErrAssetNotFound, id[:8])
	}
	oldFeed := current.Feed
	cfg.Enabled = current.Enabled
	if err := r.writeAsset(id, &cfg); err != nil {
		return err
	}
	r.emitter.Emit(events.AssetUpdated{
		AssetID: id,
		OldFeed: oldFeed,
		NewFeed: cfg.Feed,
		Tier:    uint8(cfg.Tier),
	})
	return nil
}

// SetAssetEnabled flips the soft-disable flag on an existing asset.
func (r *Registry) SetAssetEnabled(caller [20]byte, id AssetID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureActive(); err != nil {
		return err
	}
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	current, exists, err := r.loadAsset(id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %x", ErrAssetNotFound, id[:8])
	}
	current.Enabled = enabled
	if err := r.writeAsset(id, current); err != nil {
		return err
	}
	r.emitter.Emit(events.AssetEnabled{AssetID: id, Enabled: enabled})
	return nil
}

// GetAsset returns the full config for the id.
func (r *Registry) GetAsset(id AssetID) (*AssetConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil, errNilState
	}
	cfg, exists, err := r.loadAsset(id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %x", ErrAssetNotFound, id[:8])
	}
	return cfg, nil
}

// AllAssetIDs lists every registered id in insertion order.
func (r *Registry) AllAssetIDs() ([]AssetID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return nil, errNilState
	}
	var raw [][]byte
	if err := r.state.KVGetList(assetListKey, &raw); err != nil {
		return nil, err
	}
	ids := make([]AssetID, 0, len(raw))
	seen := make(map[AssetID]struct{}, len(raw))
	for _, entry := range raw {
		if len(entry) != len(AssetID{}) {
			continue
		}
		var id AssetID
		copy(id[:], entry)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// HasAsset reports whether the id is registered without surfacing an error
// for absence.
func (r *Registry) HasAsset(id AssetID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return false, errNilState
	}
	_, exists, err := r.loadAsset(id)
	return exists, err
}
