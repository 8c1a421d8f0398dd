package userauth

import (
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
)

// Session is a freshly issued token pair together with the sanitized view of
// the account it was issued for. Both tokens are always issued together.
type Session struct {
	User             user.View
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RegisterRequest is the input of [Engine.Register]. Role is untrusted text;
// empty selects Config.Account.DefaultRole.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// ProfileUpdate lists requested profile changes for [Engine.UpdateProfile].
//
// The password changes only when both CurrentPassword and NewPassword are
// set. A nil Image leaves the image alone; a pointer to "" clears it.
type ProfileUpdate struct {
	Name            string
	CurrentPassword string
	NewPassword     string
	Image           *string
}

// Identity is the caller identity proven by a valid access token.
type Identity struct {
	UserID string    `json:"id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   role.Role `json:"role"`
}
