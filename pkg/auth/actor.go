package auth

import (
	"github.com/angelmondragon/trustchain-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Can reports whether the actor's role permits action.
func (a Actor) Can(action Action) bool {
	return Can(a.Role, action)
}
