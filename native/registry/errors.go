package registry

import (
	"errors"
	"fmt"

	"volatilitycats/crypto"
)

var (
	// ErrAssetExists is returned when addAsset targets an id that is
	// already registered.
	ErrAssetExists = errors.New("registry: asset already exists")
	// ErrAssetNotFound is returned by lookups and mutations on an
	// unregistered id.
	ErrAssetNotFound = errors.New("registry: asset not found")
	// ErrInvalidAsset is returned when a config fails validation.
	ErrInvalidAsset = errors.New("registry: invalid asset config")
	// ErrUnauthorized is returned when the caller lacks the registry
	// admin role.
	ErrUnauthorized = errors.New("registry: caller not authorized")
)

// unauthorizedErr names the rejected caller so audit logs can attribute the
// attempt without extra lookups.
func unauthorizedErr(caller [20]byte) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, crypto.NewAddress(crypto.CatPrefix, caller[:]).String())
}
