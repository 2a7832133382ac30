package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"huddle/internal/core/domain"
	"huddle/pkg/errors"
)

// standupImpl exposes the concrete service so tests can fix the clock
// and trigger flushes without waiting on real timers.
func (e *testEnv) standupImpl(t *testing.T) *standupService {
	t.Helper()
	impl, ok := e.standup.(*standupService)
	if !ok {
		t.Fatalf("unexpected standup service type %T", e.standup)
	}
	return impl
}

func (e *testEnv) handleOf(t *testing.T, id domain.UserID) string {
	t.Helper()
	user, err := e.users.GetByID(e.ctx, id)
	if err != nil {
		t.Fatalf("get user %d: %v", id, err)
	}
	return user.Handle
}

func TestStandupStart(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createChannel(t, bob, "general")

	if _, err := env.standup.Start(env.ctx, carol, ch, time.Hour); !errors.IsAccess(err) {
		t.Fatalf("expected access error for non-member, got %v", err)
	}
	if _, err := env.standup.Start(env.ctx, bob, ch, 0); !errors.IsInput(err) {
		t.Fatalf("expected input error for zero duration, got %v", err)
	}
	if _, err := env.standup.Start(env.ctx, bob, 999, time.Hour); !errors.IsInput(err) {
		t.Fatalf("expected input error for unknown channel, got %v", err)
	}

	deadline, err := env.standup.Start(env.ctx, bob, ch, time.Hour)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !deadline.After(time.Now()) {
		t.Fatalf("deadline should be in the future, got %v", deadline)
	}

	if _, err := env.standup.Start(env.ctx, bob, ch, time.Hour); !errors.IsInput(err) {
		t.Fatalf("expected input error for double start, got %v", err)
	}

	status, err := env.standup.Active(env.ctx, bob, ch)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !status.Active || status.Deadline == nil || !status.Deadline.Equal(deadline) {
		t.Fatalf("expected active status with deadline %v, got %+v", deadline, status)
	}
}

func TestStandupFlushJoinsContributionsInOrder(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createChannel(t, bob, "general")
	if err := env.chanSvc.Join(env.ctx, carol, ch); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := env.standup.Send(env.ctx, bob, ch, "too early"); !errors.IsInput(err) {
		t.Fatalf("expected input error sending outside a window, got %v", err)
	}

	if _, err := env.standup.Start(env.ctx, bob, ch, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.standup.Send(env.ctx, bob, ch, "shipped the importer"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := env.standup.Send(env.ctx, carol, ch, "reviewing the importer"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := env.standup.Send(env.ctx, carol, ch, strings.Repeat("x", 1001)); !errors.IsInput(err) {
		t.Fatalf("expected input error for oversized contribution, got %v", err)
	}

	env.standupImpl(t).flushStandup(ch)

	channel := env.channel(t, ch)
	if len(channel.Messages) != 1 {
		t.Fatalf("expected one flushed message, got %d", len(channel.Messages))
	}
	msg := channel.Messages[0]
	want := fmt.Sprintf("%s: shipped the importer\n%s: reviewing the importer",
		env.handleOf(t, bob), env.handleOf(t, carol))
	if msg.Body != want {
		t.Fatalf("flushed body mismatch:\n got: %q\nwant: %q", msg.Body, want)
	}
	if msg.AuthorID != bob {
		t.Fatalf("flushed message should be attributed to the starter, got author %d", msg.AuthorID)
	}
	if channel.Standup.Active {
		t.Fatal("standup should be idle after flush")
	}

	// A second flush on the idle buffer is a no-op.
	env.standupImpl(t).flushStandup(ch)
	if got := len(env.channel(t, ch).Messages); got != 1 {
		t.Fatalf("idle flush must not add messages, got %d", got)
	}
}

func TestStandupFlushEmptyBufferProducesNoMessage(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "quiet")

	if _, err := env.standup.Start(env.ctx, bob, ch, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.standupImpl(t).flushStandup(ch)

	channel := env.channel(t, ch)
	if len(channel.Messages) != 0 {
		t.Fatalf("empty window must not materialize a message, got %d", len(channel.Messages))
	}
	if channel.Standup.Active {
		t.Fatal("standup should be idle after flush")
	}
}

func TestSendLater(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createChannel(t, bob, "general")

	impl := env.standupImpl(t)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return fixed }

	if _, err := env.standup.SendLater(env.ctx, carol, ch, "hi", fixed.Add(time.Minute)); !errors.IsAccess(err) {
		t.Fatalf("expected access error for non-member, got %v", err)
	}
	if _, err := env.standup.SendLater(env.ctx, bob, ch, "", fixed.Add(time.Minute)); !errors.IsInput(err) {
		t.Fatalf("expected input error for empty body, got %v", err)
	}
	if _, err := env.standup.SendLater(env.ctx, bob, ch, "hi", fixed.Add(-time.Second)); !errors.IsInput(err) {
		t.Fatalf("expected input error for past fire time, got %v", err)
	}

	// Fire time equal to now delivers synchronously.
	id, err := env.standup.SendLater(env.ctx, bob, ch, "right now", fixed)
	if err != nil {
		t.Fatalf("send later at now: %v", err)
	}
	msg := env.channel(t, ch).FindMessage(id)
	if msg == nil || msg.Body != "right now" {
		t.Fatalf("expected synchronous delivery, got %+v", msg)
	}
	if !msg.CreatedAt.Equal(fixed) {
		t.Fatalf("expected creation time %v, got %v", fixed, msg.CreatedAt)
	}
}

func TestSendLaterFiresAfterDelay(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "general")

	id, err := env.standup.SendLater(env.ctx, bob, ch, "from the past", time.Now().Add(20*time.Millisecond))
	if err != nil {
		t.Fatalf("send later: %v", err)
	}
	if env.channel(t, ch).FindMessage(id) != nil {
		t.Fatal("message must not appear before the fire time")
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.channel(t, ch).FindMessage(id) == nil {
		if time.Now().After(deadline) {
			t.Fatal("deferred message never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAppendDeferredDropsWhenChannelGone(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "doomed")

	if err := env.chanSvc.Leave(env.ctx, bob, ch); err != nil {
		t.Fatalf("leave: %v", err)
	}

	impl := env.standupImpl(t)
	err := impl.appendDeferred(ch, bob, domain.MessageID(env.msgSeq.Next()), "late", time.Now())
	if err == nil {
		t.Fatal("expected error appending into a deleted channel")
	}
}

func TestRearmActiveFlushesExpiredWindow(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "general")

	if _, err := env.standup.Start(env.ctx, bob, ch, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.standup.Send(env.ctx, bob, ch, "carried over"); err != nil {
		t.Fatalf("send: %v", err)
	}

	// Simulate a restart after the deadline passed: rewind the persisted
	// deadline, then re-arm.
	err := env.channels.Mutate(env.ctx, ch, func(c *domain.Channel) error {
		c.Standup.Deadline = time.Now().Add(-time.Minute)
		return nil
	})
	if err != nil {
		t.Fatalf("rewind deadline: %v", err)
	}

	if err := env.standup.RearmActive(env.ctx); err != nil {
		t.Fatalf("rearm: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		channel := env.channel(t, ch)
		if !channel.Standup.Active && len(channel.Messages) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired window never flushed: active=%v messages=%d",
				channel.Standup.Active, len(channel.Messages))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
