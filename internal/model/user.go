package model

import "time"

// UserRole represents the role of a user on the board
type UserRole string

const (
	UserRoleGuest  UserRole = "guest"  // Browsing only
	UserRoleMember UserRole = "member" // Default role, can post
	UserRoleAdmin  UserRole = "admin"  // Full access including moderation
)

// User represents a user account as exposed to clients
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     *string    `json:"email,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
	Level     int        `json:"level"`
	Role      UserRole   `json:"role"`
	CreatedOn *time.Time `json:"created_on,omitempty"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// ToPostAuthor projects the user onto the author view embedded in posts.
// The result shares no memory with u.
func (u *User) ToPostAuthor() PostAuthor {
	author := PostAuthor{
		ID:       u.ID,
		Username: u.Username,
		Level:    u.Level,
	}
	if u.Avatar != nil {
		avatar := *u.Avatar
		author.Avatar = &avatar
	}
	return author
}

// UserProfile is a User plus extended attributes
type UserProfile struct {
	User
	Bio         *string           `json:"bio,omitempty"`
	Stats       map[string]int    `json:"stats,omitempty"`       // e.g. "posts" -> 12
	Preferences map[string]string `json:"preferences,omitempty"` // e.g. "theme" -> "dark"
}

// UserAuth is a User plus authentication material. It is supplied by the
// identity provider and must never be sent to clients.
type UserAuth struct {
	User
	CredentialHash string     `json:"credential_hash"` // bcrypt hash
	LastLoginOn    *time.Time `json:"last_login_on,omitempty"`
}

// CredentialBearing marks UserAuth as unsafe for outbound envelopes
func (UserAuth) CredentialBearing() bool {
	return true
}

// PostAuthor is the minimal user view embedded by value in posts
type PostAuthor struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar,omitempty"`
	Level    int     `json:"level"`
}
