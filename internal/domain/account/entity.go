package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCompany Role = "company"
	RoleVA      Role = "va"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleVA, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfAssignable reports whether a new account may pick this role at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleCompany || r == RoleVA
}

type Account struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	Role            Role
	ProfileComplete bool
	EmailVerified   bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Actor is the authenticated account performing an operation.
type Actor struct {
	AccountID uuid.UUID
	Role      Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}
	return strings.ToLower(email)
}

func ValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\n")
}
