package cats

import (
	"volatilitycats/core/events"
	nativecommon "volatilitycats/native/common"
)

// ClaimReward pays the fixed CHURR amount exactly once per token. The
// rewarded flag flips false→true in the same operation as the mint, so a
// repeated claim can never double-pay.
func (e *Engine) ClaimReward(caller [20]byte, tokenID uint64) error {
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
	if cat.Game.Power < e.params.PowerThreshold {
		return ErrPowerTooLow
	}
	if cat.Game.Rewarded {
		return ErrAlreadyClaimed
	}

	cat.Game.Rewarded = true
	if err := e.state.CatPut(cat); err != nil {
		return err
	}
	if err := e.state.MintToken(TokenSymbol, caller, e.params.RewardAmount); err != nil {
		return err
	}

	e.emit(events.RewardClaimed{
		TokenID: tokenID,
		Owner:   caller,
		Amount:  cloneBigInt(e.params.RewardAmount),
	})
	return nil
}
