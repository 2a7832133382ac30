package services

import (
	"context"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"
	"huddle/pkg/validation"

	"go.uber.org/zap"
)

// channelService is the membership and ownership ledger. Every check
// runs inside the repository's Mutate closure, so a violated
// precondition aborts the whole call with no partial mutation.
type channelService struct {
	channelRepo ports.ChannelRepository
	userRepo    ports.UserRepository
	channelSeq  *Sequence
	metrics     ports.Metrics
	logger      *zap.SugaredLogger
}

func NewChannelService(
	channelRepo ports.ChannelRepository,
	userRepo ports.UserRepository,
	channelSeq *Sequence,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) ports.ChannelService {
	return &channelService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		channelSeq:  channelSeq,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *channelService) Create(ctx context.Context, actor domain.UserID, name string, public bool) (domain.ChannelID, error) {
	creator, err := s.actorUser(ctx, actor)
	if err != nil {
		return 0, err
	}
	if err := validation.ValidateChannelName(name); err != nil {
		return 0, errors.NewInputError(err.Error())
	}

	visibility := domain.VisibilityPrivate
	if public {
		visibility = domain.VisibilityPublic
	}

	channel := &domain.Channel{
		ID:         domain.ChannelID(s.channelSeq.Next()),
		Name:       name,
		Visibility: visibility,
		Members:    []domain.UserID{creator.ID},
		Owners:     []domain.UserID{creator.ID},
		CreatedAt:  time.Now(),
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return 0, err
	}

	s.updateChannelCount(ctx)
	s.logger.Infow("channel created", "channel_id", channel.ID, "creator", creator.ID)
	return channel.ID, nil
}

func (s *channelService) List(ctx context.Context, actor domain.UserID) ([]ports.ChannelSummary, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return nil, err
	}
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ports.ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		summaries = append(summaries, ports.ChannelSummary{ID: ch.ID, Name: ch.Name})
	}
	return summaries, nil
}

func (s *channelService) ListJoined(ctx context.Context, actor domain.UserID) ([]ports.ChannelSummary, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return nil, err
	}
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	var summaries []ports.ChannelSummary
	for _, ch := range channels {
		if ch.HasMember(actor) {
			summaries = append(summaries, ports.ChannelSummary{ID: ch.ID, Name: ch.Name})
		}
	}
	return summaries, nil
}

func (s *channelService) Details(ctx context.Context, actor domain.UserID, channelID domain.ChannelID) (*ports.ChannelDetails, error) {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, errors.NewInputError("channel does not exist")
	}
	if !domain.IsMember(actingUser, channel) && !domain.IsGlobalOwner(actingUser) {
		return nil, errors.NewAccessError("actor is not a member of the channel")
	}

	details := &ports.ChannelDetails{
		Name:         channel.Name,
		Visibility:   string(channel.Visibility),
		OwnerMembers: s.profiles(ctx, channel.Owners),
		AllMembers:   s.profiles(ctx, channel.Members),
	}
	return details, nil
}

func (s *channelService) Invite(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, target domain.UserID) error {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return err
	}
	targetUser, err := s.userRepo.GetByID(ctx, target)
	if err != nil {
		return errors.NewInputError("target user does not exist")
	}

	return s.mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !ch.HasMember(actor) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if actor == target {
			return errors.NewInputError("cannot invite yourself")
		}
		if ch.HasMember(target) {
			return errors.NewInputError("target is already a member")
		}
		if domain.IsGlobalOwner(targetUser) {
			ch.AddOwner(target)
		} else {
			ch.AddMember(target)
		}
		return nil
	})
}

func (s *channelService) Join(ctx context.Context, actor domain.UserID, channelID domain.ChannelID) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	return s.mutate(ctx, channelID, func(ch *domain.Channel) error {
		if ch.HasMember(actor) {
			// Idempotent no-op.
			return nil
		}
		if ch.Visibility == domain.VisibilityPrivate && !domain.IsGlobalOwner(actingUser) {
			return errors.NewAccessError("channel is private")
		}
		if domain.IsGlobalOwner(actingUser) {
			ch.AddOwner(actor)
		} else {
			ch.AddMember(actor)
		}
		return nil
	})
}

func (s *channelService) Leave(ctx context.Context, actor domain.UserID, channelID domain.ChannelID) error {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return err
	}

	err := s.mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !ch.HasMember(actor) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		ch.RemoveMember(actor)
		return nil
	})
	if err != nil {
		return err
	}

	s.updateChannelCount(ctx)
	return nil
}

func (s *channelService) AddOwner(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, target domain.UserID) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, target); err != nil {
		return errors.NewInputError("target user does not exist")
	}

	return s.mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !domain.IsAuthorizedModerator(actingUser, ch) {
			return errors.NewAccessError("actor may not manage channel owners")
		}
		if ch.HasOwner(target) {
			return errors.NewInputError("target is already an owner")
		}
		ch.AddOwner(target)
		return nil
	})
}

func (s *channelService) RemoveOwner(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, target domain.UserID) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, target); err != nil {
		return errors.NewInputError("target user does not exist")
	}

	return s.mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !domain.IsAuthorizedModerator(actingUser, ch) {
			return errors.NewAccessError("actor may not manage channel owners")
		}
		if !ch.HasOwner(target) {
			return errors.NewInputError("target is not an owner")
		}
		if len(ch.Owners) == 1 && len(ch.Members) > 0 {
			return errors.NewInputError("cannot remove the only owner")
		}
		ch.RemoveOwner(target)
		return nil
	})
}

// mutate maps the repository's not-found sentinel onto the API error model.
func (s *channelService) mutate(ctx context.Context, channelID domain.ChannelID, fn func(*domain.Channel) error) error {
	err := s.channelRepo.Mutate(ctx, channelID, fn)
	if err == domain.ErrChannelNotFound {
		return errors.NewInputError("channel does not exist")
	}
	return err
}

func (s *channelService) actorUser(ctx context.Context, actor domain.UserID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor)
	if err != nil {
		return nil, errors.NewAccessError("unknown actor")
	}
	return user, nil
}

func (s *channelService) profiles(ctx context.Context, ids []domain.UserID) []ports.MemberProfile {
	profiles := make([]ports.MemberProfile, 0, len(ids))
	for _, id := range ids {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			continue
		}
		profiles = append(profiles, ports.MemberProfile{
			ID:     user.ID,
			Handle: user.Handle,
			Name:   user.FirstName + " " + user.LastName,
		})
	}
	return profiles
}

func (s *channelService) updateChannelCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return
	}
	s.metrics.SetChannelCount(len(channels))
}
