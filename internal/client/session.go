package client

import (
	"encoding/json"
	"errors"
	"os"
)

// SessionFile persists the login between shell runs.
type SessionFile struct {
	Path string
}

// SavedSession is the on-disk session.
type SavedSession struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

// Load reads the saved session. A missing file yields an empty session.
func (f SessionFile) Load() (SavedSession, error) {
	var s SavedSession
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return SavedSession{}, err
	}
	return s, nil
}

// Save writes s readable by the owner only, since the token is a credential.
func (f SessionFile) Save(s SavedSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

// Clear removes the saved session.
func (f SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
