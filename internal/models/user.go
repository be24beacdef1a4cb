package models

import "time"

// Role is the closed set of account roles. Roles are fixed at registration
// and never self-escalatable.
type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleAuthority Role = "authority"
)

// ParseRole rejects anything outside the closed role set. An empty value
// defaults to visitor, matching registration behavior.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleVisitor, RoleAuthority:
		return Role(s), nil
	case "":
		return RoleVisitor, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID               string
	Email            string
	PasswordHash     string
	Role             Role
	TwoFactorEnabled bool
	OTPSecret        string     // Base32 TOTP secret, empty unless 2FA was enabled
	LastLogin        *time.Time // Updated on successful non-2FA login
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
