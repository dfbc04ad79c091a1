// Package sessionstore provides the file-based implementation of
// domain.SessionStore. It never writes the backlog file directly; every
// write goes through the atomic file writer.
package sessionstore

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/runoshun/prdflow/internal/domain"
	"github.com/runoshun/prdflow/internal/infra/atomicfile"
)

// Ensure Store implements domain.SessionStore.
var _ domain.SessionStore = (*Store)(nil)

// Store reads and writes the persisted artifacts of session directories.
type Store struct {
	logger zerolog.Logger
}

// New creates a session store.
func New(logger zerolog.Logger) *Store {
	return &Store{logger: logger}
}

// ReadBacklog reads tasks.json, strictly decodes it, and validates the
// result. A missing file, a parse failure, and a validation failure all
// surface as *domain.SessionFileError carrying the file path.
func (s *Store) ReadBacklog(dir string) (*domain.Backlog, error) {
	path := filepath.Join(dir, domain.BacklogFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.SessionFileError{Op: "read backlog", Path: path, Err: err}
	}

	var b domain.Backlog
	if err := decodeJSONStrict(content, &b); err != nil {
		return nil, &domain.SessionFileError{Op: "parse backlog", Path: path, Err: err}
	}
	if errs := domain.ValidateBacklog(&b); errs != nil {
		return nil, &domain.SessionFileError{Op: "validate backlog", Path: path, Err: errs}
	}
	return &b, nil
}

// WriteBacklog serializes the backlog as 2-space-indented JSON and commits
// it atomically.
func (s *Store) WriteBacklog(dir string, b *domain.Backlog) error {
	path := filepath.Join(dir, domain.BacklogFileName)
	content, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return &domain.SessionFileError{Op: "marshal backlog", Path: path, Err: err}
	}
	content = append(content, '\n')
	if err := atomicfile.WriteFile(path, content, 0o644); err != nil {
		return &domain.SessionFileError{Op: "write backlog", Path: path, Err: err}
	}
	return nil
}

// ReadPRDSnapshot returns the frozen PRD text byte-for-byte.
func (s *Store) ReadPRDSnapshot(dir string) (string, error) {
	path := filepath.Join(dir, domain.PRDSnapshotFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.SessionFileError{Op: "read prd snapshot", Path: path, Err: err}
	}
	return string(content), nil
}

// WritePRDSnapshot writes the frozen PRD text byte-for-byte, atomically.
func (s *Store) WritePRDSnapshot(dir string, content string) error {
	path := filepath.Join(dir, domain.PRDSnapshotFileName)
	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return &domain.SessionFileError{Op: "write prd snapshot", Path: path, Err: err}
	}
	return nil
}

// ReadParentLink reads parent_session.txt. The link is best-effort:
// absence and malformed content both yield "" without an error.
func (s *Store) ReadParentLink(dir string) (string, error) {
	path := filepath.Join(dir, domain.ParentLinkFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("failed to read parent link")
		}
		return "", nil
	}
	parent := strings.TrimSpace(string(content))
	if _, _, ok := domain.ParseSessionDirName(parent); !ok {
		s.logger.Warn().Str("path", path).Str("value", parent).Msg("malformed parent link, treating as absent")
		return "", nil
	}
	return parent, nil
}

// WriteParentLink records the parent session's ID, atomically.
func (s *Store) WriteParentLink(dir string, parent string) error {
	path := filepath.Join(dir, domain.ParentLinkFileName)
	if err := atomicfile.WriteFile(path, []byte(parent+"\n"), 0o644); err != nil {
		return &domain.SessionFileError{Op: "write parent link", Path: path, Err: err}
	}
	return nil
}

// decodeJSONStrict decodes JSON rejecting unknown fields and trailing content.
func decodeJSONStrict(content []byte, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected trailing content")
	}
	return nil
}
