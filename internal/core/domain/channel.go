package domain

import "time"

type ChannelID int64

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Channel is the aggregate for one channel: membership, ownership, the
// message timeline (most-recent-first) and the standup buffer. Member
// and owner slices preserve insertion order; owners is always a subset
// of members.
type Channel struct {
	ID         ChannelID
	Name       string
	Visibility Visibility
	Members    []UserID
	Owners     []UserID
	Messages   []*Message
	Standup    StandupBuffer
	CreatedAt  time.Time
}

func (c *Channel) HasMember(user UserID) bool {
	return containsUser(c.Members, user)
}

func (c *Channel) HasOwner(user UserID) bool {
	return containsUser(c.Owners, user)
}

func (c *Channel) AddMember(user UserID) {
	if !c.HasMember(user) {
		c.Members = append(c.Members, user)
	}
}

func (c *Channel) AddOwner(user UserID) {
	c.AddMember(user)
	if !c.HasOwner(user) {
		c.Owners = append(c.Owners, user)
	}
}

// RemoveMember drops user from members and owners. If that leaves the
// owner set empty while members remain, the member with the lowest id
// is promoted.
func (c *Channel) RemoveMember(user UserID) {
	c.Members = removeUser(c.Members, user)
	c.Owners = removeUser(c.Owners, user)
	if len(c.Owners) == 0 && len(c.Members) > 0 {
		lowest := c.Members[0]
		for _, uid := range c.Members[1:] {
			if uid < lowest {
				lowest = uid
			}
		}
		c.Owners = append(c.Owners, lowest)
	}
}

func (c *Channel) RemoveOwner(user UserID) {
	c.Owners = removeUser(c.Owners, user)
}

// FindMessage returns the message with the given id, or nil.
func (c *Channel) FindMessage(id MessageID) *Message {
	for _, m := range c.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// PrependMessage inserts a message at the head of the timeline
// (most-recent-first ordering).
func (c *Channel) PrependMessage(m *Message) {
	c.Messages = append([]*Message{m}, c.Messages...)
}

// DeleteMessage hard-deletes the message with the given id.
func (c *Channel) DeleteMessage(id MessageID) bool {
	for i, m := range c.Messages {
		if m.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Channel) Clone() *Channel {
	if c == nil {
		return nil
	}
	cl := *c
	cl.Members = append([]UserID(nil), c.Members...)
	cl.Owners = append([]UserID(nil), c.Owners...)
	cl.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		cl.Messages[i] = m.Clone()
	}
	cl.Standup = c.Standup.Clone()
	return &cl
}

func containsUser(ids []UserID, user UserID) bool {
	for _, id := range ids {
		if id == user {
			return true
		}
	}
	return false
}

func removeUser(ids []UserID, user UserID) []UserID {
	for i, id := range ids {
		if id == user {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
