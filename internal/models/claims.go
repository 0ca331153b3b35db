package models

import "github.com/golang-jwt/jwt/v5"

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Actor returns the resolved identity the services operate on.
func (c *UserClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Actor is the already-authenticated caller of a core operation.
type Actor struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (a Actor) IsTopLevelAdmin() bool {
	return a.Role == RoleAdmin
}

// IsReviewer reports whether the actor may take part in dispute review.
func (a Actor) IsReviewer() bool {
	return a.Role == RoleReviewer || a.Role == RoleAdmin
}
