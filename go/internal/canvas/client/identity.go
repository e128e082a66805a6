package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/sketchroom/go/internal/canvas/events"
)

// ErrDisplayNameRequired is returned when no identity exists yet and no name was given
var ErrDisplayNameRequired = errors.New("display name required for first use")

// IdentityStore remembers the local participant across sessions
type IdentityStore interface {
	Load() (events.Participant, bool, error)
	Save(events.Participant) error
}

type identityFile struct {
	ParticipantID string `yaml:"participant_id"`
	DisplayName   string `yaml:"display_name"`
}

// FileIdentityStore keeps the identity in a small YAML file
type FileIdentityStore struct {
	path string
}

// NewFileIdentityStore stores the identity at path
func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

// DefaultIdentityPath returns ~/.sketchroom/identity.yaml
func DefaultIdentityPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".sketchroom", "identity.yaml"), nil
}

// Load reads the stored identity. The boolean is false when none was saved yet.
func (s *FileIdentityStore) Load() (events.Participant, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return events.Participant{}, false, nil
	}
	if err != nil {
		return events.Participant{}, false, fmt.Errorf("failed to read identity file: %w", err)
	}

	var f identityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return events.Participant{}, false, fmt.Errorf("failed to parse identity file: %w", err)
	}
	if f.ParticipantID == "" {
		return events.Participant{}, false, nil
	}
	return events.Participant{ParticipantID: f.ParticipantID, DisplayName: f.DisplayName}, true, nil
}

// Save writes the identity, creating the parent directory if needed
func (s *FileIdentityStore) Save(p events.Participant) error {
	data, err := yaml.Marshal(identityFile{ParticipantID: p.ParticipantID, DisplayName: p.DisplayName})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// EnsureIdentity returns the stored identity, creating one on first use.
// A non-empty displayName that differs from the stored one renames the
// participant but keeps its id.
func EnsureIdentity(store IdentityStore, displayName string) (events.Participant, error) {
	p, found, err := store.Load()
	if err != nil {
		return events.Participant{}, err
	}

	if found {
		if displayName == "" || displayName == p.DisplayName {
			return p, nil
		}
		p.DisplayName = displayName
		if err := store.Save(p); err != nil {
			return events.Participant{}, err
		}
		return p, nil
	}

	if displayName == "" {
		return events.Participant{}, ErrDisplayNameRequired
	}

	p = events.Participant{
		ParticipantID: uuid.NewString(),
		DisplayName:   displayName,
	}
	if err := store.Save(p); err != nil {
		return events.Participant{}, err
	}
	return p, nil
}
