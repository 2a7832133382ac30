package services

import (
	"context"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"

	"go.uber.org/zap"
)

// messageService owns the timeline: append, edit, removal, windowed
// reads, and reaction/pin state. Message ids come from a single shared
// sequence, so they are strictly increasing across the whole store.
type messageService struct {
	channelRepo ports.ChannelRepository
	userRepo    ports.UserRepository
	messageSeq  *Sequence
	sink        ports.EventSink
	metrics     ports.Metrics
	logger      *zap.SugaredLogger
}

func NewMessageService(
	channelRepo ports.ChannelRepository,
	userRepo ports.UserRepository,
	messageSeq *Sequence,
	sink ports.EventSink,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) ports.MessageService {
	return &messageService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		messageSeq:  messageSeq,
		sink:        sink,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *messageService) Send(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, body string) (domain.MessageID, error) {
	if _, err := s.actorUser(ctx, actor); err != nil {
		return 0, err
	}

	var sent *domain.Message
	err := s.channelRepo.Mutate(ctx, channelID, func(ch *domain.Channel) error {
		if !ch.HasMember(actor) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if body == "" || domain.BodyTooLong(body) {
			return errors.NewInputError("message body must be between 1 and 1000 characters")
		}
		// Allocated under the store lock so per-channel insertion order
		// matches id order for plain sends.
		sent = &domain.Message{
			ID:        domain.MessageID(s.messageSeq.Next()),
			ChannelID: ch.ID,
			AuthorID:  actor,
			Body:      body,
			CreatedAt: time.Now(),
		}
		ch.PrependMessage(sent)
		return nil
	})
	if err == domain.ErrChannelNotFound {
		return 0, errors.NewInputError("channel does not exist")
	}
	if err != nil {
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.RecordMessageSent(channelID)
	}
	if s.sink != nil {
		s.sink.MessageCreated(channelID, sent.Clone())
	}
	return sent.ID, nil
}

func (s *messageService) Edit(ctx context.Context, actor domain.UserID, messageID domain.MessageID, body string) error {
	if body == "" {
		return s.Remove(ctx, actor, messageID)
	}

	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	var edited *domain.Message
	var channelID domain.ChannelID
	err = s.channelRepo.MutateByMessage(ctx, messageID, func(ch *domain.Channel, m *domain.Message) error {
		if !s.canModify(actingUser, ch, m) {
			return errors.NewAccessError("actor may not edit this message")
		}
		if domain.BodyTooLong(body) {
			return errors.NewInputError("message body must be at most 1000 characters")
		}
		m.Body = body
		edited = m
		channelID = ch.ID
		return nil
	})
	if err == domain.ErrMessageNotFound {
		return errors.NewInputError("message does not exist")
	}
	if err != nil {
		return err
	}

	if s.sink != nil {
		s.sink.MessageEdited(channelID, edited.Clone())
	}
	return nil
}

func (s *messageService) Remove(ctx context.Context, actor domain.UserID, messageID domain.MessageID) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	var channelID domain.ChannelID
	err = s.channelRepo.MutateByMessage(ctx, messageID, func(ch *domain.Channel, m *domain.Message) error {
		if !s.canModify(actingUser, ch, m) {
			return errors.NewAccessError("actor may not remove this message")
		}
		ch.DeleteMessage(m.ID)
		channelID = ch.ID
		return nil
	})
	if err == domain.ErrMessageNotFound {
		return errors.NewInputError("message does not exist")
	}
	if err != nil {
		return err
	}

	if s.sink != nil {
		s.sink.MessageRemoved(channelID, messageID)
	}
	return nil
}

func (s *messageService) Query(ctx context.Context, actor domain.UserID, channelID domain.ChannelID, start int) (*ports.MessagePage, error) {
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

	count := len(channel.Messages)
	if start == 0 && count == 0 {
		// Empty channel: both cursors signal "no more pages".
		return &ports.MessagePage{
			Messages: []ports.MessageView{},
			Start:    ports.NoMorePages,
			End:      ports.NoMorePages,
		}, nil
	}
	if start < 0 || start > count {
		return nil, errors.NewInputError("start is outside the message timeline")
	}

	stop := start + ports.PageSize
	if stop > count {
		stop = count
	}
	views := make([]ports.MessageView, 0, stop-start)
	for _, m := range channel.Messages[start:stop] {
		views = append(views, ports.MessageView{
			ID:        m.ID,
			AuthorID:  m.AuthorID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
			Reactions: m.Reactions,
			Pinned:    m.Pinned,
		})
	}

	end := ports.NoMorePages
	if start+ports.PageSize < count {
		end = start + ports.PageSize
	}
	return &ports.MessagePage{Messages: views, Start: start, End: end}, nil
}

func (s *messageService) React(ctx context.Context, actor domain.UserID, messageID domain.MessageID, kind domain.ReactionKind) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	err = s.channelRepo.MutateByMessage(ctx, messageID, func(ch *domain.Channel, m *domain.Message) error {
		if !domain.ValidReactionKind(kind) {
			return errors.NewInputError("unknown reaction kind")
		}
		if !ch.HasMember(actor) && !domain.IsGlobalOwner(actingUser) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if current, ok := m.ReactionBy(actor); ok {
			if current == kind {
				return errors.NewInputError("reaction of that kind already active")
			}
			// One active reaction per user per message: switching kinds
			// clears the previous one.
			m.RemoveReaction(current, actor)
		}
		m.AddReaction(kind, actor)
		return nil
	})
	if err == domain.ErrMessageNotFound {
		return errors.NewInputError("message does not exist")
	}
	return err
}

func (s *messageService) Unreact(ctx context.Context, actor domain.UserID, messageID domain.MessageID, kind domain.ReactionKind) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	err = s.channelRepo.MutateByMessage(ctx, messageID, func(ch *domain.Channel, m *domain.Message) error {
		if !domain.ValidReactionKind(kind) {
			return errors.NewInputError("unknown reaction kind")
		}
		if !ch.HasMember(actor) && !domain.IsGlobalOwner(actingUser) {
			return errors.NewAccessError("actor is not a member of the channel")
		}
		if !m.RemoveReaction(kind, actor) {
			return errors.NewInputError("no active reaction of that kind")
		}
		return nil
	})
	if err == domain.ErrMessageNotFound {
		return errors.NewInputError("message does not exist")
	}
	return err
}

func (s *messageService) Pin(ctx context.Context, actor domain.UserID, messageID domain.MessageID) error {
	return s.setPinned(ctx, actor, messageID, true)
}

func (s *messageService) Unpin(ctx context.Context, actor domain.UserID, messageID domain.MessageID) error {
	return s.setPinned(ctx, actor, messageID, false)
}

func (s *messageService) setPinned(ctx context.Context, actor domain.UserID, messageID domain.MessageID, pinned bool) error {
	actingUser, err := s.actorUser(ctx, actor)
	if err != nil {
		return err
	}

	err = s.channelRepo.MutateByMessage(ctx, messageID, func(ch *domain.Channel, m *domain.Message) error {
		// Channel owners must also be members (owners are a subset of
		// members by invariant); global-tier owners moderate without
		// membership.
		if !domain.IsGlobalOwner(actingUser) {
			if !domain.IsChannelOwner(actingUser, ch) || !ch.HasMember(actor) {
				return errors.NewAccessError("actor may not pin in this channel")
			}
		}
		if m.Pinned == pinned {
			if pinned {
				return errors.NewInputError("message is already pinned")
			}
			return errors.NewInputError("message is not pinned")
		}
		m.Pinned = pinned
		return nil
	})
	if err == domain.ErrMessageNotFound {
		return errors.NewInputError("message does not exist")
	}
	return err
}

// canModify implements the shared edit/remove rule: the author, a
// channel owner of the containing channel, or a global-tier owner.
func (s *messageService) canModify(actor *domain.User, ch *domain.Channel, m *domain.Message) bool {
	if m.AuthorID == actor.ID {
		return true
	}
	return domain.IsAuthorizedModerator(actor, ch)
}

func (s *messageService) actorUser(ctx context.Context, actor domain.UserID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor)
	if err != nil {
		return nil, errors.NewAccessError("unknown actor")
	}
	return user, nil
}
