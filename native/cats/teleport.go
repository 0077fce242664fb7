package cats

import (
	"math/big"

	"volatilitycats/core/events"
	"volatilitycats/native/bridge"
	nativecommon "volatilitycats/native/common"
)

// TeleportToChain moves a token to the target chain: charges the power cost,
// marks the visited bitmap, bumps the teleport counter and contributes the
// teleport fee to the jackpot pool. When the visit completes a Grand Tour and
// the pool is unclaimed, the award fires in the same operation.
//
// All state is persisted before the cross-chain message is dispatched, so a
// collaborator can never re-enter a half-applied teleport or re-trigger the
// award.
func (e *Engine) TeleportToChain(caller [20]byte, tokenID uint64, targetChainID uint32, payload []byte) (*Cat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if targetChainID > e.params.Teleport.MaxChainID {
		return nil, ErrInvalidChain
	}
	cat, err := e.loadCat(tokenID)
	if err != nil {
		return nil, err
	}
	if cat.Owner != caller {
		return nil, unauthorizedErr(ErrNotTokenOwner, caller)
	}
	if !cat.Teleport.IsAlive {
		return nil, ErrNotAlive
	}
	if cat.Game.Power < e.params.Teleport.PowerCost {
		return nil, ErrTeleportPowerLow
	}
	now := e.now()
	if cat.Teleport.LastTeleport != 0 && now < cat.Teleport.LastTeleport+e.params.Teleport.CooldownSeconds {
		return nil, ErrTeleportCooldown
	}

	fromChain := cat.Teleport.CurrentChainID
	cat.Game.Power -= e.params.Teleport.PowerCost
	cat.Teleport.CurrentChainID = targetChainID
	cat.Teleport.markVisited(targetChainID)
	cat.Teleport.TeleportCount++
	cat.Teleport.LastTeleport = now
	if err := e.state.CatPut(cat); err != nil {
		return nil, err
	}

	pot, err := e.loadJackpot()
	if err != nil {
		return nil, err
	}
	if e.params.Jackpot.TeleportFee.Sign() > 0 {
		pot.Balance = pot.Balance.Add(pot.Balance, e.params.Jackpot.TeleportFee)
	}

	var award *events.JackpotAwarded
	// Bit zero is the home chain; the Grand Tour counts only remote visits.
	toured := cat.Teleport.VisitedCount() - 1
	if !pot.Claimed && toured >= e.params.Teleport.TargetChains {
		payout := new(big.Int).Add(pot.Balance, e.params.Jackpot.GrandTourBonus)
		awardedEpoch := pot.Epoch
		pot.Claimed = true
		pot.Winner = caller
		pot.Balance = big.NewInt(0)
		pot.Epoch++
		if err := e.state.MintToken(TokenSymbol, caller, payout); err != nil {
			return nil, err
		}
		award = &events.JackpotAwarded{
			TokenID: tokenID,
			Winner:  caller,
			Amount:  payout,
			Epoch:   awardedEpoch,
		}
	}
	if err := e.state.JackpotPut(pot); err != nil {
		return nil, err
	}

	e.emit(events.TeleportCompleted{
		TokenID:       tokenID,
		FromChain:     fromChain,
		ToChain:       targetChainID,
		TeleportCount: cat.Teleport.TeleportCount,
		PowerAfter:    cat.Game.Power,
		FeePaid:       cloneBigInt(e.params.Jackpot.TeleportFee),
	})
	if award != nil {
		e.emit(*award)
	}

	e.dispatch(bridge.NewMessage(fromChain, targetChainID, tokenID, payload))
	return cat.Clone(), nil
}
