package ports

import (
	"context"
	"time"

	"huddle/internal/core/domain"
)

// MemberProfile is the public projection of a user in channel details.
type MemberProfile struct {
	ID     domain.UserID `json:"id"`
	Handle string        `json:"handle"`
	Name   string        `json:"name"`
}

type ChannelDetails struct {
	Name         string          `json:"name"`
	Visibility   string          `json:"visibility"`
	OwnerMembers []MemberProfile `json:"owner_members"`
	AllMembers   []MemberProfile `json:"all_members"`
}

type ChannelSummary struct {
	ID   domain.ChannelID `json:"id"`
	Name string           `json:"name"`
}

// NoMorePages is the cursor sentinel returned when a query window
// reaches the end of the timeline.
const NoMorePages = -1

// PageSize is the fixed pagination window.
const PageSize = 50

type MessageView struct {
	ID        domain.MessageID  `json:"id"`
	AuthorID  domain.UserID     `json:"author_id"`
	Body      string            `json:"body"`
	CreatedAt time.Time         `json:"created_at"`
	Reactions []domain.Reaction `json:"reactions"`
	Pinned    bool              `json:"pinned"`
}

type MessagePage struct {
	Messages []MessageView `json:"messages"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
}

type StandupStatus struct {
	Active   bool       `json:"is_active"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type UserProfile struct {
	ID        domain.UserID         `json:"id"`
	Email     string                `json:"email"`
	FirstName string                `json:"first_name"`
	LastName  string                `json:"last_name"`
	Handle    string                `json:"handle"`
	Tier      domain.PermissionTier `json:"tier"`
}

type UserService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Profile(ctx context.Context, actor, target domain.UserID) (*UserProfile, error)
	ListAll(ctx context.Context, actor domain.UserID) ([]UserProfile, error)
	SetName(ctx context.Context, actor domain.UserID, firstName, lastName string) error
	SetEmail(ctx context.Context, actor domain.UserID, email string) error
	SetHandle(ctx context.Context, actor domain.UserID, handle string) error
	SetTier(ctx context.Context, actor, target domain.UserID, tier domain.PermissionTier) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
}

type ChannelService interface {
	Create(ctx context.Context, actor domain.UserID, name string, public bool) (domain.ChannelID, error)
	List(ctx context.Context, actor domain.UserID) ([]ChannelSummary, error)
	ListJoined(ctx context.Context, actor domain.UserID) ([]ChannelSummary, error)
	Details(ctx context.Context, actor domain.UserID, channel domain.ChannelID) (*ChannelDetails, error)
	Invite(ctx context.Context, actor domain.UserID, channel domain.ChannelID, target domain.UserID) error
	Join(ctx context.Context, actor domain.UserID, channel domain.ChannelID) error
	Leave(ctx context.Context, actor domain.UserID, channel domain.ChannelID) error
	AddOwner(ctx context.Context, actor domain.UserID, channel domain.ChannelID, target domain.UserID) error
	RemoveOwner(ctx context.Context, actor domain.UserID, channel domain.ChannelID, target domain.UserID) error
}

type MessageService interface {
	Send(ctx context.Context, actor domain.UserID, channel domain.ChannelID, body string) (domain.MessageID, error)
	Edit(ctx context.Context, actor domain.UserID, message domain.MessageID, body string) error
	Remove(ctx context.Context, actor domain.UserID, message domain.MessageID) error
	Query(ctx context.Context, actor domain.UserID, channel domain.ChannelID, start int) (*MessagePage, error)
	React(ctx context.Context, actor domain.UserID, message domain.MessageID, kind domain.ReactionKind) error
	Unreact(ctx context.Context, actor domain.UserID, message domain.MessageID, kind domain.ReactionKind) error
	Pin(ctx context.Context, actor domain.UserID, message domain.MessageID) error
	Unpin(ctx context.Context, actor domain.UserID, message domain.MessageID) error
}

type StandupService interface {
	Start(ctx context.Context, actor domain.UserID, channel domain.ChannelID, duration time.Duration) (time.Time, error)
	Send(ctx context.Context, actor domain.UserID, channel domain.ChannelID, text string) error
	Active(ctx context.Context, actor domain.UserID, channel domain.ChannelID) (*StandupStatus, error)
	SendLater(ctx context.Context, actor domain.UserID, channel domain.ChannelID, body string, fireAt time.Time) (domain.MessageID, error)
	// RearmActive re-arms flush timers for windows restored from a
	// snapshot; timers themselves are not persisted.
	RearmActive(ctx context.Context) error
}

// EventSink receives timeline side effects for fan-out to connected
// clients. Implementations must not block.
type EventSink interface {
	MessageCreated(channel domain.ChannelID, message *domain.Message)
	MessageEdited(channel domain.ChannelID, message *domain.Message)
	MessageRemoved(channel domain.ChannelID, message domain.MessageID)
	StandupFlushed(channel domain.ChannelID, message *domain.Message)
}

// Metrics is the counter surface exercised by the core services.
type Metrics interface {
	RecordMessageSent(channel domain.ChannelID)
	RecordStandupFlush(duration time.Duration)
	RecordDeferredFired()
	RecordDeferredDropped()
	SetChannelCount(n int)
}

// EmailSender delivers outbound mail. Delivery is best effort; the core
// never blocks on it.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, code string) error
}
