package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// StateSchemaVersion is written to every session file; other versions are refused.
	StateSchemaVersion = "2"
	// DefaultStateDir holds release sessions relative to the repository root.
	DefaultStateDir = ".release-state"
	// LockTimeout bounds how long a session lock is waited for.
	LockTimeout = 30 * time.Second

	stateFileMode  = 0o600
	stateDirMode   = 0o700
	lockRetryDelay = 100 * time.Millisecond
	latestIndex    = "latest.json"
)

// ErrStateNotFound is returned when a session has no persisted state.
var ErrStateNotFound = errors.New("rollback state not found")

// StateRepository persists release sessions so a failed run can be
// compensated later.
type StateRepository interface {
	Save(ctx context.Context, state *domain.RollbackState) error
	Load(ctx context.Context, sessionID string) (*domain.RollbackState, error)
	LoadLatest(ctx context.Context) (*domain.RollbackState, error)
}

type sessionFile struct {
	Schema   string                `json:"schema"`
	Checksum string                `json:"checksum"`
	SavedAt  time.Time             `json:"saved_at"`
	State    *domain.RollbackState `json:"state"`
}

// sessionIndex points at the most recently saved session.
type sessionIndex struct {
	SessionID string    `json:"session_id"`
	Version   string    `json:"version,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// JSONStateRepository stores one checksummed JSON document per session,
// guarded by an OS file lock.
type JSONStateRepository struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewJSONStateRepository(fs afero.Fs, dir string, logger *zap.Logger) StateRepository {
	if dir == "" {
		dir = DefaultStateDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONStateRepository{fs: fs, dir: dir, logger: logger.Named("state"), now: time.Now}
}

// Save writes the session atomically and updates the latest index.
func (r *JSONStateRepository) Save(ctx context.Context, state *domain.RollbackState) error {
	if state == nil || state.SessionID == "" {
		return fmt.Errorf("state has no session id")
	}
	if err := r.fs.MkdirAll(r.dir, stateDirMode); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	checksum, err := stateChecksum(state)
	if err != nil {
		return err
	}
	savedAt := r.now()
	doc, err := json.MarshalIndent(sessionFile{
		Schema:   StateSchemaVersion,
		Checksum: checksum,
		SavedAt:  savedAt,
		State:    state,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}
	err = r.withLock(ctx, state.SessionID, false, func() error {
		return r.writeAtomic(r.sessionPath(state.SessionID), doc)
	})
	if err != nil {
		return err
	}
	index, err := json.Marshal(sessionIndex{
		SessionID: state.SessionID,
		Version:   state.Version,
		Tag:       state.GitTag,
		SavedAt:   savedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode latest index: %w", err)
	}
	if err := r.writeAtomic(filepath.Join(r.dir, latestIndex), index); err != nil {
		return fmt.Errorf("failed to update latest index: %w", err)
	}
	r.logger.Debug("Saved release session",
		zap.String("session", state.SessionID),
		zap.String("status", string(state.Status)),
		zap.Int("operations", len(state.Operations)))
	return nil
}

// Load reads a session and verifies its schema and checksum.
func (r *JSONStateRepository) Load(ctx context.Context, sessionID string) (*domain.RollbackState, error) {
	var data []byte
	err := r.withLock(ctx, sessionID, true, func() error {
		var readErr error
		data, readErr = afero.ReadFile(r.fs, r.sessionPath(sessionID))
		return readErr
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: session %s", ErrStateNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	var doc sessionFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	if doc.Schema != StateSchemaVersion {
		return nil, fmt.Errorf("session %s has schema %q, expected %q", sessionID, doc.Schema, StateSchemaVersion)
	}
	if doc.State == nil {
		return nil, fmt.Errorf("session %s has no state", sessionID)
	}
	checksum, err := stateChecksum(doc.State)
	if err != nil {
		return nil, err
	}
	if checksum != doc.Checksum {
		return nil, fmt.Errorf("session %s: checksum mismatch, state file was modified", sessionID)
	}
	return doc.State, nil
}

// LoadLatest loads the session named by the latest index.
func (r *JSONStateRepository) LoadLatest(ctx context.Context) (*domain.RollbackState, error) {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.dir, latestIndex))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no release session recorded", ErrStateNotFound)
		}
		return nil, fmt.Errorf("failed to read latest index: %w", err)
	}
	var index sessionIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode latest index: %w", err)
	}
	if index.SessionID == "" {
		return nil, fmt.Errorf("latest index has no session id")
	}
	return r.Load(ctx, index.SessionID)
}

// withLock runs fn while holding the session lock. shared selects a read lock.
func (r *JSONStateRepository) withLock(ctx context.Context, sessionID string, shared bool, fn func() error) error {
	if err := r.fs.MkdirAll(r.dir, stateDirMode); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	lock := flock.New(r.lockPath(sessionID))
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	acquire := lock.TryLockContext
	if shared {
		acquire = lock.TryRLockContext
	}
	locked, err := acquire(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	if !locked {
		return fmt.Errorf("session %s is locked by another process", sessionID)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("Failed to unlock session", zap.String("lock", lock.Path()), zap.Error(err))
		}
	}()
	return fn()
}

func (r *JSONStateRepository) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, stateFileMode); err != nil {
		return err
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		if rmErr := r.fs.Remove(tmp); rmErr != nil {
			r.logger.Warn("Failed to remove temporary file", zap.String("file", tmp), zap.Error(rmErr))
		}
		return err
	}
	return nil
}

func (r *JSONStateRepository) sessionPath(sessionID string) string {
	return filepath.Join(r.dir, sessionID+".json")
}

func (r *JSONStateRepository) lockPath(sessionID string) string {
	return filepath.Join(r.dir, "."+sessionID+".lock")
}

func stateChecksum(state *domain.RollbackState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state for checksum: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
