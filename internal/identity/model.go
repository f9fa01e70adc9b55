package identity

import "time"

// Verification flows a pending challenge can belong to.
const (
	FlowRegister = "register"
	FlowLogin    = "login"
)

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Challenge is an outstanding one-time code bound to a user and a flow.
// Only the bcrypt hash of the code is stored, never the code itself.
type Challenge struct {
	CodeHash  string
	Flow      string
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its validity window.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// User represents a registered profile.
type User struct {
	ID          string
	Handle      string
	DisplayName string
	Email       string
	Phone       string
	AvatarURL   string
	BannerURL   string
	Role        string
	Verified    bool
	Challenge   *Challenge
	Following   []string
	Followers   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RegisterInput captures data required to create a profile.
type RegisterInput struct {
	Handle      string
	DisplayName string
	Email       string
	Phone       string
}

// ProfileUpdate holds mutable profile fields. Empty strings leave the
// stored value unchanged.
type ProfileUpdate struct {
	Handle      string
	DisplayName string
	Phone       string
	AvatarURL   string
	BannerURL   string
}
