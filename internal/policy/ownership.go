// Package policy decides whether an authenticated identity may mutate a
// resource. Every mutating path goes through Authorize.
package policy

import (
	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/auth"
)

// Owned is implemented by every resource that records its creator.
type Owned interface {
	OwnerID() int
}

// CanMutate reports whether identity owns resource.
func CanMutate(identity auth.Identity, resource Owned) bool {
	return resource.OwnerID() == identity.ID
}

// Authorize returns apperror.ErrForbidden unless identity owns resource.
func Authorize(identity auth.Identity, resource Owned) error {
	if !CanMutate(identity, resource) {
		return apperror.ErrForbidden
	}
	return nil
}
