package services

import (
	"context"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/snapshot"

	"go.uber.org/zap"
)

// snapshotKeep is how many historical snapshots survive pruning.
const snapshotKeep = 5

// StoreState is the unit of persistence: the whole store serialized at
// once, plus the id counters so restored ids are never re-allocated.
type StoreState struct {
	Users         []*domain.User    `json:"users"`
	Channels      []*domain.Channel `json:"channels"`
	NextUserID    int64             `json:"next_user_id"`
	NextChannelID int64             `json:"next_channel_id"`
	NextMessageID int64             `json:"next_message_id"`
}

// SnapshotService saves and restores whole-store snapshots. The
// in-memory store stays authoritative between saves; a crash loses at
// most one interval of writes.
type SnapshotService struct {
	userRepo    ports.UserRepository
	channelRepo ports.ChannelRepository
	userSeq     *Sequence
	channelSeq  *Sequence
	messageSeq  *Sequence
	snaps       *snapshot.Service
	logger      *zap.SugaredLogger
}

func NewSnapshotService(
	userRepo ports.UserRepository,
	channelRepo ports.ChannelRepository,
	userSeq, channelSeq, messageSeq *Sequence,
	snaps *snapshot.Service,
	logger *zap.SugaredLogger,
) *SnapshotService {
	return &SnapshotService{
		userRepo:    userRepo,
		channelRepo: channelRepo,
		userSeq:     userSeq,
		channelSeq:  channelSeq,
		messageSeq:  messageSeq,
		snaps:       snaps,
		logger:      logger,
	}
}

// Save writes one snapshot and prunes old ones.
func (s *SnapshotService) Save(ctx context.Context) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return err
	}
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return err
	}

	state := StoreState{
		Users:         users,
		Channels:      channels,
		NextUserID:    s.userSeq.Current(),
		NextChannelID: s.channelSeq.Current(),
		NextMessageID: s.messageSeq.Current(),
	}
	name, err := s.snaps.Write(ctx, state)
	if err != nil {
		return err
	}
	if err := s.snaps.Prune(ctx, snapshotKeep); err != nil {
		s.logger.Warnw("failed to prune snapshots", "error", err)
	}

	s.logger.Debugw("snapshot saved", "name", name, "users", len(users), "channels", len(channels))
	return nil
}

// Restore loads the latest snapshot, if any, replacing the store
// wholesale and seeding the id sequences.
func (s *SnapshotService) Restore(ctx context.Context) error {
	name, err := s.snaps.Latest(ctx)
	if err != nil {
		return err
	}
	if name == "" {
		s.logger.Info("no snapshot found, starting with an empty store")
		return nil
	}

	var state StoreState
	if err := s.snaps.Read(ctx, name, &state); err != nil {
		return err
	}

	if err := s.userRepo.ReplaceAll(ctx, state.Users); err != nil {
		return err
	}
	if err := s.channelRepo.ReplaceAll(ctx, state.Channels); err != nil {
		return err
	}
	s.userSeq.Seed(state.NextUserID)
	s.channelSeq.Seed(state.NextChannelID)
	s.messageSeq.Seed(state.NextMessageID)

	s.logger.Infow("snapshot restored",
		"name", name,
		"users", len(state.Users),
		"channels", len(state.Channels),
	)
	return nil
}

// Run saves on the given interval until ctx is cancelled, then makes a
// final save.
func (s *SnapshotService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				s.logger.Errorw("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			if err := s.Save(context.Background()); err != nil {
				s.logger.Errorw("final snapshot failed", "error", err)
			}
			return
		}
	}
}
