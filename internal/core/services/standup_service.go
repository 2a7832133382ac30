package services

import (
	"context"
	"fmt"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"go.uber.org/zap"
)

// standupService runs the deferred delivery machinery: standup windows
// and scheduled sends. Timers are one-shot and fire-and-forget; a
// callback that finds its channel gone logs the loss and drops the
// side effect, since nothing is listening for the result.
type standupService struct {
	channelRepo ports.ChannelRepository
	userRepo    ports.UserRepository
	messageSeq  *Sequence
	sink        ports.EventSink
	metrics     ports.Metrics
	logger      *zap.SugaredLogger

	// now is replaceable in tests.
	now func() time.Time
}

func NewStandupService(
	channelRepo ports.ChannelRepository,
	userRepo ports.UserRepository,
	messageSeq *Sequence,
	sink ports.EventSink,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) ports.StandupService {
	return &standupService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		messageSeq:  messageSeq,
		sink:        sink,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *standupService) Start(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, duration time.Duration) (time.Time, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return time.Time{}, err
	}

	var deadline time.Time
	err := s.channelRepo.Mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !ch.HasMember(actor) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if duration <= 0 {
			return errors.NewInputError("standup duration must be positive")
		}
		if ch.Standup.Active {
			return errors.NewInputError("a standup is already active in the channel")
		}
		deadline = s.now().Add(duration)
		ch.Standup = domain.StandupBuffer{
			Active:    true,
			Deadline:  deadline,
			StarterID: actor,
		}
		return nil
	})
	if err == domain.ErrChannelNotFound {
		return time.Time{}, errors.NewInputError("channel does not exist")
	}
	if err != nil {
		return time.Time{}, err
	}

	time.AfterFunc(duration, func() { s.flushStandup(channelID) })
	s.logger.Infow("standup started", "channel_id", channelID, "deadline", deadline)
	return deadline, nil
}

func (s *standupService) Send(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, text string) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	err = s.channelRepo.Mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !ch.HasMember(actor) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if domain.BodyTooLong(text) {
			return errors.NewInputError("standup message must be at most 1000 characters")
		}
		if !ch.Standup.Active {
			return errors.NewInputError("no standup is active in the channel")
		}
		ch.Standup.Append(fmt.Sprintf("%s: %s", actingUser.Handle, text))
		return nil
	})
	if err == domain.ErrChannelNotFound {
		return errors.NewInputError("channel does not exist")
	}
	return err
}

func (s *standupService) Active(ctx context.Context, actor domain.UserID, channelID domain.ChannelID) (*ports.StandupStatus, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return nil, err
	}
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, errors.NewInputError("channel does not exist")
	}
	if !channel.HasMember(actor) {
		return nil, errors.NewAccessError("actor is not a member of the channel")
	}

	status := &ports.StandupStatus{Active: channel.Standup.Active}
	if channel.Standup.Active {
		deadline := channel.Standup.Deadline
		status.Deadline = &deadline
	}
	return status, nil
}

func (s *standupService) SendLater(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, body string, fireAt time.Time) (domain.MessageID, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return 0, err
	}
	channel, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return 0, errors.NewInputError("channel does not exist")
	}
	if !channel.HasMember(actor) {
		return 0, errors.NewAccessError("actor is not a member of the channel")
	}
	if body == "" || domain.BodyTooLong(body) {
		return 0, errors.NewInputError("message body must be between 1 and 1000 characters")
	}

	now := s.now()
	if fireAt.Before(now) {
		return 0, errors.NewInputError("fire time is in the past")
	}

	// The id is allocated up front so the caller gets it synchronously;
	// it is burned, not reused, if the deferred append is later dropped.
	messageID := domain.MessageID(s.messageSeq.Next())

	if !fireAt.After(now) {
		if err := s.appendDeferred(channelID, actor, messageID, body, now); err != nil {
			return 0, err
		}
		return messageID, nil
	}

	time.AfterFunc(fireAt.Sub(now), func() {
		if err := s.appendDeferred(channelID, actor, messageID, body, fireAt); err != nil {
			if s.metrics != nil {
				s.metrics.RecordDeferredDropped()
			}
			s.logger.Warnw("deferred send dropped",
				"channel_id", channelID,
				"message_id", messageID,
				"error", err,
			)
		}
	})
	return messageID, nil
}

// RearmActive re-arms standup flush timers after a snapshot restore.
// Windows whose deadline already passed flush immediately.
func (s *standupService) RearmActive(ctx context.Context) error {
	channels, err := s.channelRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if !ch.Standup.Active {
			continue
		}
		remaining := time.Until(ch.Standup.Deadline)
		if remaining < 0 {
			remaining = 0
		}
		channelID := ch.ID
		time.AfterFunc(remaining, func() { s.flushStandup(channelID) })
		s.logger.Infow("standup timer re-armed", "channel_id", channelID, "remaining", remaining)
	}
	return nil
}

// appendDeferred performs the timeline append for a pre-allocated id,
// exactly as a normal send would. Membership is not re-checked: it was
// verified when the intent was accepted.
func (s *standupService) appendDeferred(channelID domain.ChannelID, author domain.UserID, messageID domain.MessageID, body string, at time.Time) error {
	ctx := context.Background()

	var sent *domain.Message
	err := s.channelRepo.Mutate(ctx, channelID, func(ch *domain.Channel) error {
		sent = &domain.Message{
			ID:        messageID,
			ChannelID: ch.ID,
			AuthorID:  author,
			Body:      body,
			CreatedAt: at,
		}
		ch.PrependMessage(sent)
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent(channelID)
		s.metrics.RecordDeferredFired()
	}
	if s.sink != nil {
		s.sink.MessageCreated(channelID, sent.Clone())
	}
	return nil
}

// flushStandup is the timer callback for a standup window. The buffer
// always returns to idle; a message materializes only when members
// contributed.
func (s *standupService) flushStandup(channelID domain.ChannelID) {
	ctx := context.Background()
	started := time.Now()

	var flushed *domain.Message
	err := s.channelRepo.Mutate(ctx, channelID, func(ch *domain.Channel) error {
		starter := ch.Standup.StarterID
		blob := ch.Standup.Flush()
		if blob == "" {
			return nil
		}
		flushed = &domain.Message{
			ID:        domain.MessageID(s.messageSeq.Next()),
			ChannelID: ch.ID,
			AuthorID:  starter,
			Body:      blob,
			CreatedAt: s.now(),
		}
		ch.PrependMessage(flushed)
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDeferredDropped()
		}
		s.logger.Warnw("standup flush dropped", "channel_id", channelID, "error", err)
		return
	}

	if flushed != nil {
		if s.metrics != nil {
			s.metrics.RecordMessageSent(channelID)
			s.metrics.RecordStandupFlush(time.Since(started))
		}
		if s.sink != nil {
			s.sink.StandupFlushed(channelID, flushed.Clone())
		}
	}
}

func (s *standupService) actorUser(ctx context.Context, actor domain.UserID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor)
	if err != nil {
		return nil, errors.NewAccessError("unknown actor")
	}
	return user, nil
}
