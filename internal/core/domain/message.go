package domain

import (
	"time"
	"unicode/utf8"
)

type MessageID int64

// MaxMessageLen is the body length ceiling for sends, edits and
// standup contributions, counted in characters.
const MaxMessageLen = 1000

// BodyTooLong reports whether body exceeds MaxMessageLen. Length is
// measured in runes, not bytes, so multi-byte text gets the full quota.
func BodyTooLong(body string) bool {
	return utf8.RuneCountInString(body) > MaxMessageLen
}

type ReactionKind int

const (
	ReactThumbsUp   ReactionKind = 1
	ReactThumbsDown ReactionKind = 2
	ReactHeart      ReactionKind = 3
	ReactLaugh      ReactionKind = 4
)

// ValidReactionKind reports whether kind is part of the fixed enumeration.
func ValidReactionKind(kind ReactionKind) bool {
	switch kind {
	case ReactThumbsUp, ReactThumbsDown, ReactHeart, ReactLaugh:
		return true
	}
	return false
}

// Reaction holds the set of users currently reacting with one kind.
type Reaction struct {
	Kind    ReactionKind
	UserIDs []UserID
}

type Message struct {
	ID        MessageID
	ChannelID ChannelID
	AuthorID  UserID
	Body      string
	CreatedAt time.Time
	Reactions []Reaction
	Pinned    bool
}

// ReactionBy returns the kind of the actor's active reaction, if any.
// A user holds at most one active reaction per message.
func (m *Message) ReactionBy(user UserID) (ReactionKind, bool) {
	for _, r := range m.Reactions {
		for _, uid := range r.UserIDs {
			if uid == user {
				return r.Kind, true
			}
		}
	}
	return 0, false
}

// AddReaction records user under kind. Any prior reaction by the same
// user must be removed first.
func (m *Message) AddReaction(kind ReactionKind, user UserID) {
	for i := range m.Reactions {
		if m.Reactions[i].Kind == kind {
			m.Reactions[i].UserIDs = append(m.Reactions[i].UserIDs, user)
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Kind: kind, UserIDs: []UserID{user}})
}

// RemoveReaction clears user's entry under kind. Empty reaction records
// are dropped so kinds with no reactors do not linger.
func (m *Message) RemoveReaction(kind ReactionKind, user UserID) bool {
	for i := range m.Reactions {
		if m.Reactions[i].Kind != kind {
			continue
		}
		ids := m.Reactions[i].UserIDs
		for j, uid := range ids {
			if uid == user {
				m.Reactions[i].UserIDs = append(ids[:j], ids[j+1:]...)
				if len(m.Reactions[i].UserIDs) == 0 {
					m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
				}
				return true
			}
		}
	}
	return false
}

func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Reactions = make([]Reaction, len(m.Reactions))
	for i, r := range m.Reactions {
		c.Reactions[i] = Reaction{
			Kind:    r.Kind,
			UserIDs: append([]UserID(nil), r.UserIDs...),
		}
	}
	return &c
}
