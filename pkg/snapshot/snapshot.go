package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Envelope wraps one serialized whole-store snapshot. The payload is
// opaque to this package; the owning service defines its shape.
type Envelope struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	State     json.RawMessage `json:"state"`
}

// Storage defines interface for snapshot storage
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Service writes and restores whole-store snapshots.
type Service struct {
	storage Storage
	version string
}

// NewService creates a new snapshot service
func NewService(storage Storage, version string) *Service {
	return &Service{
		storage: storage,
		version: version,
	}
}

// Write serializes state and saves it under a timestamped name,
// returning the name.
func (s *Service) Write(ctx context.Context, state interface{}) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot state: %w", err)
	}

	env := Envelope{
		Version:   s.version,
		Timestamp: time.Now(),
		State:     raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot envelope: %w", err)
	}

	name := fmt.Sprintf("snapshot-%s.json", env.Timestamp.UTC().Format("20060102-150405.000000000"))
	if err := s.storage.Save(ctx, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	return name, nil
}

// Read loads the named snapshot and unmarshals its payload into state.
func (s *Service) Read(ctx context.Context, name string, state interface{}) error {
	reader, err := s.storage.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read snapshot data: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot envelope: %w", err)
	}
	if err := json.Unmarshal(env.State, state); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot state: %w", err)
	}
	return nil
}

// Latest returns the name of the most recent snapshot, or "" when none
// exist. Snapshot names embed their timestamp, so lexicographic order is
// chronological.
func (s *Service) Latest(ctx context.Context) (string, error) {
	names, err := s.storage.List(ctx, "snapshot-")
	if err != nil {
		return "", fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return names[len(names)-1], nil
}

// Prune deletes all but the keep most recent snapshots.
func (s *Service) Prune(ctx context.Context, keep int) error {
	names, err := s.storage.List(ctx, "snapshot-")
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := s.storage.Delete(ctx, name); err != nil {
			return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
		}
	}
	return nil
}
