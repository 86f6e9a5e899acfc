package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Credentials is the durable part of the session state.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// CredentialStore persists session credentials across client restarts.
type CredentialStore interface {
	Save(creds Credentials) error
	Load() (*Credentials, error)
	Clear() error
}

// Fixed storage names, stable across sessions.
const (
	accessTokenFile  = "accessToken"
	refreshTokenFile = "refreshToken"
	userFile         = "user.json"
)

// FileStore keeps each credential in its own file under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(creds Credentials) error {
	if err := os.WriteFile(filepath.Join(s.dir, accessTokenFile), []byte(creds.AccessToken), 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, refreshTokenFile), []byte(creds.RefreshToken), 0o600); err != nil {
		return err
	}
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, userFile), userJSON, 0o600)
}

func (s *FileStore) Load() (*Credentials, error) {
	access, err := readOptional(filepath.Join(s.dir, accessTokenFile))
	if err != nil {
		return nil, err
	}
	refresh, err := readOptional(filepath.Join(s.dir, refreshTokenFile))
	if err != nil {
		return nil, err
	}

	creds := &Credentials{
		AccessToken:  strings.TrimSpace(access),
		RefreshToken: strings.TrimSpace(refresh),
	}

	userJSON, err := readOptional(filepath.Join(s.dir, userFile))
	if err != nil {
		return nil, err
	}
	if userJSON != "" && userJSON != "null" {
		var u User
		if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
			return nil, err
		}
		creds.User = &u
	}
	return creds, nil
}

func (s *FileStore) Clear() error {
	for _, name := range []string{accessTokenFile, refreshTokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}
