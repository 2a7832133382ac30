package services

import (
	"context"
	"fmt"
	"testing"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/internal/infrastructure/repositories/memory"

	"go.uber.org/zap/zaptest"
)

// testEnv wires the core services against fresh in-memory repositories.
type testEnv struct {
	ctx      context.Context
	users    ports.UserRepository
	channels ports.ChannelRepository
	userSvc  ports.UserService
	chanSvc  ports.ChannelService
	msgSvc   ports.MessageService
	standup  ports.StandupService
	msgSeq   *Sequence
}

type nopEmail struct{}

func (nopEmail) SendPasswordReset(ctx context.Context, to, code string) error { return nil }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()

	userRepo := memory.NewMemoryUserRepository()
	channelRepo := memory.NewMemoryChannelRepository()
	userSeq := NewSequence(0)
	channelSeq := NewSequence(0)
	messageSeq := NewSequence(0)

	return &testEnv{
		ctx:      context.Background(),
		users:    userRepo,
		channels: channelRepo,
		userSvc:  NewUserService(userRepo, userSeq, nopEmail{}, logger),
		chanSvc:  NewChannelService(channelRepo, userRepo, channelSeq, nil, logger),
		msgSvc:   NewMessageService(channelRepo, userRepo, messageSeq, nil, nil, logger),
		standup:  NewStandupService(channelRepo, userRepo, messageSeq, nil, nil, logger),
		msgSeq:   messageSeq,
	}
}

// registerUser creates a user with a unique email and returns its id.
// The first user registered in an env holds the global owner tier.
func (e *testEnv) registerUser(t *testing.T, name string) domain.UserID {
	t.Helper()
	user, err := e.userSvc.Register(e.ctx, fmt.Sprintf("%s@example.com", name), "hunter22", name, "tester")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return user.ID
}

// createChannel makes a public channel owned by creator.
func (e *testEnv) createChannel(t *testing.T, creator domain.UserID, name string) domain.ChannelID {
	t.Helper()
	id, err := e.chanSvc.Create(e.ctx, creator, name, true)
	if err != nil {
		t.Fatalf("create channel %s: %v", name, err)
	}
	return id
}

func (e *testEnv) createPrivateChannel(t *testing.T, creator domain.UserID, name string) domain.ChannelID {
	t.Helper()
	id, err := e.chanSvc.Create(e.ctx, creator, name, false)
	if err != nil {
		t.Fatalf("create private channel %s: %v", name, err)
	}
	return id
}

// channel fetches the raw aggregate for invariant assertions.
func (e *testEnv) channel(t *testing.T, id domain.ChannelID) *domain.Channel {
	t.Helper()
	ch, err := e.channels.GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("get channel %d: %v", id, err)
	}
	return ch
}

// assertLedgerInvariants checks owners ⊆ members and the owner floor.
func assertLedgerInvariants(t *testing.T, ch *domain.Channel) {
	t.Helper()
	for _, owner := range ch.Owners {
		if !ch.HasMember(owner) {
			t.Fatalf("owner %d is not a member of channel %d", owner, ch.ID)
		}
	}
	if len(ch.Members) > 0 && len(ch.Owners) == 0 {
		t.Fatalf("channel %d has members but no owners", ch.ID)
	}
}
