package ports

import (
	"context"

	"huddle/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByHandle(ctx context.Context, handle string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)
	ReplaceAll(ctx context.Context, users []*domain.User) error
}

// ChannelRepository is the authoritative registry of channels. Each
// channel aggregate carries its membership, timeline and standup state,
// so the Mutate closures below are the unit of atomicity: the callback
// runs against a private copy under the store lock, and the copy is
// committed only when the callback returns nil. A commit that leaves a
// channel with zero members removes it from the registry.
type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id domain.ChannelID) (*domain.Channel, error)
	GetByMessage(ctx context.Context, id domain.MessageID) (*domain.Channel, error)
	List(ctx context.Context) ([]*domain.Channel, error)
	Mutate(ctx context.Context, id domain.ChannelID, fn func(*domain.Channel) error) error
	MutateByMessage(ctx context.Context, id domain.MessageID, fn func(*domain.Channel, *domain.Message) error) error
	ReplaceAll(ctx context.Context, channels []*domain.Channel) error
}
