package services

import "bazaar/internal/domain"

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   domain.Role
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }
