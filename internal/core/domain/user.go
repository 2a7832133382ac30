package domain

import "time"

type UserID int64

type PermissionTier string

const (
	TierMember PermissionTier = "member"
	TierOwner  PermissionTier = "owner"
)

type User struct {
	ID           UserID
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Handle       string
	Tier         PermissionTier
	CreatedAt    time.Time

	// ResetCode is non-empty while a password reset is pending.
	ResetCode string
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}
