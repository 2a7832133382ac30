package memory

import (
	"context"
	"errors"
	"testing"

	"huddle/internal/core/domain"
)

func newUser(id domain.UserID, email, handle string) *domain.User {
	return &domain.User{
		ID:        id,
		Email:     email,
		Handle:    handle,
		FirstName: "Test",
		LastName:  "User",
		Tier:      domain.TierMember,
	}
}

func TestCreate_RejectsDuplicateEmailAndHandle(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser(1, "a@example.com", "auser")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Create(ctx, newUser(2, "A@Example.com", "other")); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken for case-variant email, got %v", err)
	}
	if err := repo.Create(ctx, newUser(2, "b@example.com", "auser")); !errors.Is(err, domain.ErrHandleTaken) {
		t.Fatalf("expected ErrHandleTaken, got %v", err)
	}
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser(1, "Mixed@Example.com", "mixed")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "  mixed@example.COM ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected user 1, got %d", got.ID)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdate_ReindexesEmailAndHandle(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser(1, "a@example.com", "auser")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newUser(2, "b@example.com", "buser")); err != nil {
		t.Fatalf("create: %v", err)
	}

	moved := newUser(1, "c@example.com", "cuser")
	if err := repo.Update(ctx, moved); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "a@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("old email must be released, got %v", err)
	}
	if _, err := repo.GetByHandle(ctx, "auser"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("old handle must be released, got %v", err)
	}
	got, err := repo.GetByHandle(ctx, "cuser")
	if err != nil {
		t.Fatalf("get by new handle: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected user 1 under new handle, got %d", got.ID)
	}

	taken := newUser(1, "b@example.com", "cuser")
	if err := repo.Update(ctx, taken); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken when moving onto another user's email, got %v", err)
	}
}

func TestList_SortedAndCloned(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	for _, u := range []*domain.User{
		newUser(3, "c@example.com", "cuser"),
		newUser(1, "a@example.com", "auser"),
		newUser(2, "b@example.com", "buser"),
	} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("create %d: %v", u.ID, err)
		}
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []domain.UserID{1, 2, 3} {
		if users[i].ID != want {
			t.Fatalf("expected id %d at position %d, got %d", want, i, users[i].ID)
		}
	}

	users[0].Handle = "hijacked"
	fresh, _ := repo.GetByID(ctx, 1)
	if fresh.Handle == "hijacked" {
		t.Fatal("mutating a listed clone leaked into the store")
	}
}

func TestReplaceAll_RebuildsIndexes(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newUser(1, "old@example.com", "old")); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := repo.ReplaceAll(ctx, []*domain.User{
		newUser(5, "five@example.com", "five"),
	})
	if err != nil {
		t.Fatalf("replace all: %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "old@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("pre-restore email must be gone, got %v", err)
	}
	got, err := repo.GetByHandle(ctx, "five")
	if err != nil {
		t.Fatalf("get restored user: %v", err)
	}
	if got.ID != 5 {
		t.Fatalf("expected restored user 5, got %d", got.ID)
	}
}
