package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/teemow/inboxcrm/internal/logging"
)

// FileStore persists the session as a JSON document on disk.
//
// Writes go to a temporary file in the target directory which is synced and
// renamed over the previous file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	cipher *Cipher
	logger *slog.Logger
}

// NewFileStore creates a FileStore at path. cipher may be nil.
func NewFileStore(path string, cipher *Cipher, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		cipher: cipher,
		logger: logger,
	}
}

// Path returns the location of the session file.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the session. Unreadable or malformed content yields nil.
func (f *FileStore) Load() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("Failed to read session file", "path", f.path, logging.Err(err))
		}
		return nil
	}

	plain, err := f.cipher.Open(raw)
	if err != nil {
		f.logger.Warn("Discarding undecryptable session file", "path", f.path, logging.Err(err))
		return nil
	}

	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		f.logger.Warn("Discarding malformed session file", "path", f.path, logging.Err(err))
		return nil
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &s
}

// Save atomically replaces the session file with s.
func (f *FileStore) Save(s *Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	data, err = f.cipher.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	f.logger.Debug("Saved session",
		"path", f.path,
		"access_token", logging.SanitizeToken(s.AccessToken),
		"encrypted", f.cipher.Enabled())
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	f.logger.Debug("Cleared session", "path", f.path)
	return nil
}
