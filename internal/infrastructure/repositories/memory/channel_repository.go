package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
)

// MemoryChannelRepository keeps channel aggregates and a message-id
// index under one lock. Mutations run against a clone of the aggregate
// and commit only on success, so a timer callback and a concurrent
// request can never clobber each other's writes and a failed callback
// leaves no partial state.
type MemoryChannelRepository struct {
	channels  map[domain.ChannelID]*domain.Channel
	msgIndex  map[domain.MessageID]domain.ChannelID
	mu        sync.RWMutex
}

func NewMemoryChannelRepository() ports.ChannelRepository {
	return &MemoryChannelRepository{
		channels: make(map[domain.ChannelID]*domain.Channel),
		msgIndex: make(map[domain.MessageID]domain.ChannelID),
	}
}

func (r *MemoryChannelRepository) Create(ctx context.Context, channel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[channel.ID]; exists {
		return fmt.Errorf("channel already exists: %d", channel.ID)
	}
	r.commitLocked(channel.Clone())
	return nil
}

func (r *MemoryChannelRepository) GetByID(ctx context.Context, id domain.ChannelID) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channel, exists := r.channels[id]
	if !exists {
		return nil, domain.ErrChannelNotFound
	}
	return channel.Clone(), nil
}

func (r *MemoryChannelRepository) GetByMessage(ctx context.Context, id domain.MessageID) (*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channelID, exists := r.msgIndex[id]
	if !exists {
		return nil, domain.ErrMessageNotFound
	}
	return r.channels[channelID].Clone(), nil
}

func (r *MemoryChannelRepository) List(ctx context.Context) ([]*domain.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]*domain.Channel, 0, len(r.channels))
	for _, channel := range r.channels {
		channels = append(channels, channel.Clone())
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return channels, nil
}

func (r *MemoryChannelRepository) Mutate(ctx context.Context, id domain.ChannelID, fn func(*domain.Channel) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channel, exists := r.channels[id]
	if !exists {
		return domain.ErrChannelNotFound
	}

	clone := channel.Clone()
	if err := fn(clone); err != nil {
		return err
	}
	r.commitLocked(clone)
	return nil
}

func (r *MemoryChannelRepository) MutateByMessage(ctx context.Context, id domain.MessageID, fn func(*domain.Channel, *domain.Message) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	channelID, exists := r.msgIndex[id]
	if !exists {
		return domain.ErrMessageNotFound
	}

	clone := r.channels[channelID].Clone()
	message := clone.FindMessage(id)
	if message == nil {
		return domain.ErrMessageNotFound
	}
	if err := fn(clone, message); err != nil {
		return err
	}
	r.commitLocked(clone)
	return nil
}

func (r *MemoryChannelRepository) ReplaceAll(ctx context.Context, channels []*domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = make(map[domain.ChannelID]*domain.Channel, len(channels))
	r.msgIndex = make(map[domain.MessageID]domain.ChannelID)
	for _, channel := range channels {
		r.commitLocked(channel.Clone())
	}
	return nil
}

// commitLocked writes the aggregate back and maintains the registry
// invariants: the message index follows the timeline, and a channel
// whose member set became empty is removed entirely.
func (r *MemoryChannelRepository) commitLocked(channel *domain.Channel) {
	if prev, exists := r.channels[channel.ID]; exists {
		for _, m := range prev.Messages {
			delete(r.msgIndex, m.ID)
		}
	}

	if len(channel.Members) == 0 {
		delete(r.channels, channel.ID)
		return
	}

	r.channels[channel.ID] = channel
	for _, m := range channel.Messages {
		r.msgIndex[m.ID] = channel.ID
	}
}
