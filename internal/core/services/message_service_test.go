package services

import (
	"fmt"
	"strings"
	"testing"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"
	"huddle/pkg/errors"
)

func TestSend(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createChannel(t, bob, "general")

	id, err := env.msgSvc.Send(env.ctx, bob, ch, "hello world")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive message id, got %d", id)
	}

	if _, err := env.msgSvc.Send(env.ctx, carol, ch, "hi"); !errors.IsAccess(err) {
		t.Fatalf("expected access error for non-member, got %v", err)
	}
	if _, err := env.msgSvc.Send(env.ctx, bob, ch, ""); !errors.IsInput(err) {
		t.Fatalf("expected input error for empty body, got %v", err)
	}
	if _, err := env.msgSvc.Send(env.ctx, bob, ch, strings.Repeat("x", 1001)); !errors.IsInput(err) {
		t.Fatalf("expected input error for oversized body, got %v", err)
	}
	if _, err := env.msgSvc.Send(env.ctx, bob, 999, "hi"); !errors.IsInput(err) {
		t.Fatalf("expected input error for unknown channel, got %v", err)
	}

	// The ceiling counts characters, not bytes.
	if _, err := env.msgSvc.Send(env.ctx, bob, ch, strings.Repeat("ы", 1000)); err != nil {
		t.Fatalf("1000 multi-byte characters should fit: %v", err)
	}
	if _, err := env.msgSvc.Send(env.ctx, bob, ch, strings.Repeat("ы", 1001)); !errors.IsInput(err) {
		t.Fatalf("expected input error for 1001 characters, got %v", err)
	}
}

func TestMessageIDsStrictlyIncreasingAcrossChannels(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	chA := env.createChannel(t, bob, "alpha")
	chB := env.createChannel(t, bob, "beta")

	var last domain.MessageID
	for i := 0; i < 10; i++ {
		target := chA
		if i%2 == 1 {
			target = chB
		}
		id, err := env.msgSvc.Send(env.ctx, bob, target, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if id <= last {
			t.Fatalf("ids not strictly increasing: %d after %d", id, last)
		}
		last = id
	}
}

func TestQuery_EmptyChannelSentinel(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "quiet")

	page, err := env.msgSvc.Query(env.ctx, bob, ch, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Messages) != 0 || page.Start != ports.NoMorePages || page.End != ports.NoMorePages {
		t.Fatalf("expected empty page with sentinel cursors, got %+v", page)
	}
}

func TestQuery_WindowWalk(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "busy")

	var lastID domain.MessageID
	for i := 0; i < 51; i++ {
		id, err := env.msgSvc.Send(env.ctx, bob, ch, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		lastID = id
	}

	first, err := env.msgSvc.Query(env.ctx, bob, ch, 0)
	if err != nil {
		t.Fatalf("query first page: %v", err)
	}
	if len(first.Messages) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(first.Messages))
	}
	if first.Start != 0 || first.End != 50 {
		t.Fatalf("expected cursors {0,50}, got {%d,%d}", first.Start, first.End)
	}
	// Most-recent-first: the head of the page is the last send.
	if first.Messages[0].ID != lastID {
		t.Fatalf("expected newest message %d first, got %d", lastID, first.Messages[0].ID)
	}

	second, err := env.msgSvc.Query(env.ctx, bob, ch, 50)
	if err != nil {
		t.Fatalf("query second page: %v", err)
	}
	if len(second.Messages) != 1 || second.End != ports.NoMorePages {
		t.Fatalf("expected trailing page of 1 with end sentinel, got %+v", second)
	}

	if _, err := env.msgSvc.Query(env.ctx, bob, ch, -1); !errors.IsInput(err) {
		t.Fatalf("expected input error for negative start, got %v", err)
	}
	if _, err := env.msgSvc.Query(env.ctx, bob, ch, 52); !errors.IsInput(err) {
		t.Fatalf("expected input error for start beyond count, got %v", err)
	}
}

func TestEditAndRemove(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice") // global owner
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createChannel(t, bob, "general")

	if err := env.chanSvc.Join(env.ctx, carol, ch); err != nil {
		t.Fatalf("join: %v", err)
	}

	id, err := env.msgSvc.Send(env.ctx, carol, ch, "draft")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// A plain member may not edit someone else's message.
	other, _ := env.msgSvc.Send(env.ctx, bob, ch, "bob's message")
	if err := env.msgSvc.Edit(env.ctx, carol, other, "hijacked"); !errors.IsAccess(err) {
		t.Fatalf("expected access error, got %v", err)
	}

	// Author edit.
	if err := env.msgSvc.Edit(env.ctx, carol, id, "final"); err != nil {
		t.Fatalf("author edit: %v", err)
	}
	got := env.channel(t, ch).FindMessage(id)
	if got == nil || got.Body != "final" {
		t.Fatalf("expected edited body, got %+v", got)
	}

	// Channel owner edit.
	if err := env.msgSvc.Edit(env.ctx, bob, id, "owner edit"); err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	// Global owner edit without membership.
	if err := env.msgSvc.Edit(env.ctx, alice, id, "global edit"); err != nil {
		t.Fatalf("global edit: %v", err)
	}

	if err := env.msgSvc.Edit(env.ctx, carol, id, strings.Repeat("x", 1001)); !errors.IsInput(err) {
		t.Fatalf("expected input error for oversized edit, got %v", err)
	}

	// Empty edit deletes.
	if err := env.msgSvc.Edit(env.ctx, carol, id, ""); err != nil {
		t.Fatalf("empty edit: %v", err)
	}
	if env.channel(t, ch).FindMessage(id) != nil {
		t.Fatal("message should be hard-deleted after empty edit")
	}
	if err := env.msgSvc.Remove(env.ctx, carol, id); !errors.IsInput(err) {
		t.Fatalf("expected input error removing deleted message, got %v", err)
	}
}

func TestReact_SwitchingClearsPriorKind(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "general")

	id, err := env.msgSvc.Send(env.ctx, bob, ch, "react to me")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := env.msgSvc.React(env.ctx, bob, id, domain.ReactThumbsUp); err != nil {
		t.Fatalf("react: %v", err)
	}
	if err := env.msgSvc.React(env.ctx, bob, id, domain.ReactThumbsUp); !errors.IsInput(err) {
		t.Fatalf("expected input error reacting twice with same kind, got %v", err)
	}

	// Switching kinds clears the prior one.
	if err := env.msgSvc.React(env.ctx, bob, id, domain.ReactHeart); err != nil {
		t.Fatalf("switch react: %v", err)
	}
	msg := env.channel(t, ch).FindMessage(id)
	kind, ok := msg.ReactionBy(bob)
	if !ok || kind != domain.ReactHeart {
		t.Fatalf("expected active heart reaction, got kind=%d ok=%v", kind, ok)
	}
	for _, r := range msg.Reactions {
		if r.Kind == domain.ReactThumbsUp {
			t.Fatal("prior reaction kind should be cleared")
		}
	}

	if err := env.msgSvc.React(env.ctx, bob, id, domain.ReactionKind(99)); !errors.IsInput(err) {
		t.Fatalf("expected input error for unknown kind, got %v", err)
	}
}

func TestUnreact(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")
	bob := env.registerUser(t, "bob")
	ch := env.createChannel(t, bob, "general")

	id, _ := env.msgSvc.Send(env.ctx, bob, ch, "hi")

	if err := env.msgSvc.Unreact(env.ctx, bob, id, domain.ReactThumbsUp); !errors.IsInput(err) {
		t.Fatalf("expected input error without active reaction, got %v", err)
	}
	if err := env.msgSvc.React(env.ctx, bob, id, domain.ReactThumbsUp); err != nil {
		t.Fatalf("react: %v", err)
	}
	if err := env.msgSvc.Unreact(env.ctx, bob, id, domain.ReactThumbsUp); err != nil {
		t.Fatalf("unreact: %v", err)
	}
	if _, ok := env.channel(t, ch).FindMessage(id).ReactionBy(bob); ok {
		t.Fatal("reaction should be cleared")
	}
}

func TestPin(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice") // global owner
	bob := env.registerUser(t, "bob")
	carol := env.registerUser(t, "carol")
	ch := env.createPrivateChannel(t, bob, "secret")

	if err := env.chanSvc.Invite(env.ctx, bob, ch, carol); err != nil {
		t.Fatalf("invite: %v", err)
	}
	id, _ := env.msgSvc.Send(env.ctx, bob, ch, "pin me")

	// Plain member may not pin.
	if err := env.msgSvc.Pin(env.ctx, carol, id); !errors.IsAccess(err) {
		t.Fatalf("expected access error for member pin, got %v", err)
	}

	// Global owner pins without being a member of the private channel;
	// moderation does not add them to the member list.
	if err := env.msgSvc.Pin(env.ctx, alice, id); err != nil {
		t.Fatalf("global owner pin: %v", err)
	}
	if env.channel(t, ch).HasMember(alice) {
		t.Fatal("pinning must not grant membership")
	}
	if err := env.msgSvc.Pin(env.ctx, alice, id); !errors.IsInput(err) {
		t.Fatalf("expected input error pinning twice, got %v", err)
	}

	if err := env.msgSvc.Unpin(env.ctx, bob, id); err != nil {
		t.Fatalf("owner unpin: %v", err)
	}
	if err := env.msgSvc.Unpin(env.ctx, bob, id); !errors.IsInput(err) {
		t.Fatalf("expected input error unpinning twice, got %v", err)
	}
}
