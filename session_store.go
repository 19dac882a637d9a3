package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// SessionRecord is the persisted authenticated-state blob: the portal cookies
// captured after a successful login plus the capture timestamp. At most one
// record is live per installation.
type SessionRecord struct {
	CapturedAt time.Time              `json:"captured_at"`
	Cookies    []*proto.NetworkCookie `json:"cookies"`
}

// Valid reports whether the record can plausibly resume a browsing identity.
// Validity against the portal itself is unknown until probed.
func (r *SessionRecord) Valid() bool {
	if r == nil || len(r.Cookies) == 0 {
		return false
	}
	for _, c := range r.Cookies {
		if c == nil || c.Name == "" || c.Value == "" || c.Domain == "" {
			return false
		}
	}
	return true
}

// CookieParams converts the stored cookies into the form a fresh browsing
// context accepts.
func (r *SessionRecord) CookieParams() []*proto.NetworkCookieParam {
	return proto.CookiesToParams(r.Cookies)
}

// SessionStore persists the single session record at a configurable path.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load returns the stored record, or (nil, nil) when absent. A record that
// exists but fails validation is reported as absent so the caller falls back
// to a fresh login instead of aborting the run.
func (s *SessionStore) Load() (*SessionRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, storageErr("read", s.path, err)
	}

	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		slog.Warn("session record is corrupt, treating as absent", "path", s.path, "error", err)
		return nil, nil
	}
	if !record.Valid() {
		slog.Warn("session record failed validation, treating as absent", "path", s.path)
		return nil, nil
	}

	return &record, nil
}

// Save atomically replaces the persisted record: the blob is written to a
// temp file in the same directory and renamed over the target, so a crash
// mid-write cannot corrupt an existing usable record.
func (s *SessionStore) Save(record *SessionRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return storageErr("encode", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return storageErr("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return storageErr("create temp", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr("write temp", tmpName, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return storageErr("chmod temp", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return storageErr("close temp", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return storageErr("replace", s.path, err)
	}
	cleanup = false

	return nil
}
