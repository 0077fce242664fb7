package cats

import (
	"errors"
	"fmt"

	"volatilitycats/crypto"
)

var (
	ErrInvalidClan        = errors.New("cats: invalid clan")
	ErrInvalidMissionType = errors.New("cats: invalid mission type")
	ErrInvalidChain       = errors.New("cats: chain id exceeds bitmap ceiling")
	ErrNotTokenOwner      = errors.New("cats: not token owner")
	ErrUnauthorized       = errors.New("cats: unauthorized")
	ErrCatNotFound        = errors.New("cats: token not found")
	ErrMissionCooldown    = errors.New("cats: mission cooldown active")
	ErrTeleportCooldown   = errors.New("cats: teleport cooldown active")
	ErrPowerTooLow        = errors.New("cats: power below reward threshold")
	ErrTeleportPowerLow   = errors.New("cats: power below teleport cost")
	ErrAlreadyClaimed     = errors.New("cats: reward already claimed")
	ErrNotAlive           = errors.New("cats: token not alive")
	ErrSelfTransfer       = errors.New("cats: transfer to current owner")
)

// unauthorizedErr names the rejected caller so audit logs can attribute the
// attempt without extra lookups.
func unauthorizedErr(sentinel error, caller [20]byte) error {
	return fmt.Errorf("%w: %s", sentinel, crypto.NewAddress(crypto.CatPrefix, caller[:]).String())
}

