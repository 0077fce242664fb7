package cats

import (
	"math"

	"volatilitycats/core/events"
	nativecommon "volatilitycats/native/common"
)

// CooldownSentinel is returned by RemainingCooldown for mission types outside
// the defined range: "never ready", as opposed to the mutating call which
// rejects the input outright.
const CooldownSentinel = uint64(math.MaxUint64)

// RunMission validates ownership and the per-type cooldown window, then
// credits the configured power gain. Only the last-run timestamp is
// persisted; readiness is recomputed on demand.
func (e *Engine) RunMission(caller [20]byte, tokenID uint64, missionType MissionType) (*Cat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !missionType.Valid() {
		return nil, ErrInvalidMissionType
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	cat, err := e.loadCat(tokenID)
	if err != nil {
		return nil, err
	}
	if cat.Owner != caller {
		return nil, unauthorizedErr(ErrNotTokenOwner, caller)
	}

	now := e.now()
	last := cat.Game.LastMission(missionType)
	cooldown := e.params.Missions[missionType].CooldownSeconds
	if last != 0 && now < last+cooldown {
		return nil, ErrMissionCooldown
	}

	cat.Game.setLastMission(missionType, now)
	cat.Game.Power += e.params.Missions[missionType].PowerGain
	if err := e.state.CatPut(cat); err != nil {
		return nil, err
	}

	e.emit(events.MissionCompleted{
		TokenID:     tokenID,
		MissionType: uint8(missionType),
		NewPower:    cat.Game.Power,
	})
	return cat.Clone(), nil
}

// RemainingCooldown reports the seconds until the mission type is ready
// again, zero when it is ready now. Out-of-range mission types return
// CooldownSentinel instead of failing so callers can probe cheaply.
func (e *Engine) RemainingCooldown(tokenID uint64, missionType MissionType) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !missionType.Valid() {
		return CooldownSentinel, nil
	}
	cat, err := e.loadCat(tokenID)
	if err != nil {
		return 0, err
	}
	last := cat.Game.LastMission(missionType)
	if last == 0 {
		return 0, nil
	}
	readyAt := last + e.params.Missions[missionType].CooldownSeconds
	now := e.now()
	if now >= readyAt {
		return 0, nil
	}
	return uint64(readyAt - now), nil
}
