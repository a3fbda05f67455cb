// Package state persists the durable record of an orchestration run. One
// JSON document per project describes what was created, so later commands can
// report status, attach sessions, or clean up.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the state document path relative to the project root.
const FileName = ".maestro/state.json"

// Orchestration statuses.
const (
	StatusPlanning     = "planning"
	StatusImplementing = "implementing"
	StatusActive       = "active"
	StatusCompleted    = "completed"
)

// Feature and session statuses.
const (
	StatusPending = "pending"
	StatusCreated = "created"
)

// Orchestra is the full record of one orchestration run.
type Orchestra struct {
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Features  []Feature `json:"features"`
}

// Feature records one provisioned feature.
type Feature struct {
	Name          string    `json:"name"`
	WorkspacePath string    `json:"workspace_path"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Sessions      []Session `json:"sessions,omitempty"`
}

// Session records one tmux session created for a feature.
type Session struct {
	Name          string `json:"name"`
	SessionID     string `json:"session_id"`
	Panes         int    `json:"panes"`
	Status        string `json:"status"`
	AttachedCount int    `json:"attached_count"`
}

// FindFeature returns the named feature record, if present.
func (o *Orchestra) FindFeature(name string) *Feature {
	for i := range o.Features {
		if o.Features[i].Name == name {
			return &o.Features[i]
		}
	}
	return nil
}

// FindSession returns the session record with the given fully qualified id.
func (o *Orchestra) FindSession(sessionID string) (*Feature, *Session) {
	for i := range o.Features {
		feat := &o.Features[i]
		for j := range feat.Sessions {
			if feat.Sessions[j].SessionID == sessionID {
				return feat, &feat.Sessions[j]
			}
		}
	}
	return nil, nil
}

// Tracker reads and writes the state document for one project.
type Tracker struct {
	root string
}

// NewTracker creates a tracker rooted at the project directory.
func NewTracker(root string) *Tracker {
	return &Tracker{root: root}
}

// Path returns the absolute path of the state document.
func (t *Tracker) Path() string {
	return filepath.Join(t.root, FileName)
}

// Save writes the complete state document, replacing any previous one. The
// write goes through a temp file and rename so a crash never leaves a
// truncated document behind.
func (t *Tracker) Save(orchestra *Orchestra) error {
	path := t.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.MarshalIndent(orchestra, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Load reads the state document. A project that has never been orchestrated
// returns (nil, nil), distinguishing "absent" from a read or decode failure.
func (t *Tracker) Load() (*Orchestra, error) {
	data, err := os.ReadFile(t.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var orchestra Orchestra
	if err := json.Unmarshal(data, &orchestra); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	return &orchestra, nil
}

// Remove deletes the state document. Removing an absent document is not an
// error.
func (t *Tracker) Remove() error {
	if err := os.Remove(t.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state: %w", err)
	}
	return nil
}
