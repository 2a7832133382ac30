package domain

// Permission evaluation is a set of pure functions over ledger state.
// Callers always pass freshly loaded records; nothing here is cached.

func IsGlobalOwner(u *User) bool {
	return u != nil && u.Tier == TierOwner
}

func IsMember(u *User, ch *Channel) bool {
	return u != nil && ch != nil && ch.HasMember(u.ID)
}

func IsChannelOwner(u *User, ch *Channel) bool {
	return u != nil && ch != nil && ch.HasOwner(u.ID)
}

// IsAuthorizedModerator reports whether u may perform owner-gated
// moderation in ch: channel owners and global-tier owners qualify,
// the latter regardless of membership.
func IsAuthorizedModerator(u *User, ch *Channel) bool {
	return IsChannelOwner(u, ch) || IsGlobalOwner(u)
}
