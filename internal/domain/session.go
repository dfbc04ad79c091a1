package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Persisted artifact names within a session directory.
const (
	BacklogFileName     = "tasks.json"
	PRDSnapshotFileName = "prd_snapshot.md"
	ParentLinkFileName  = "parent_session.txt"
)

// prdHashLength is the number of hex characters kept from the PRD hash.
const prdHashLength = 12

// SessionMetadata identifies a persisted session. It is created once at
// session creation and never changes afterwards.
type SessionMetadata struct {
	ID            string    // Directory name, {sequence}_{hash}
	Hash          string    // PRD content hash used for resume matching
	Path          string    // Filesystem location of the session directory
	CreatedAt     time.Time // Derived from directory mtime at load time
	ParentSession string    // Prior session's ID for delta sessions, empty otherwise
}

// IsDelta reports whether this session was created from a modified PRD
// and links back to a prior session.
func (m SessionMetadata) IsDelta() bool {
	return m.ParentSession != ""
}

// SessionState is the aggregate unit exchanged with the execution layer.
// CurrentItemID is owned and mutated by the caller; this core only stores
// and returns it.
type SessionState struct {
	Metadata      SessionMetadata
	PRDSnapshot   string   // Frozen PRD text at session-creation time
	TaskRegistry  *Backlog // The committed backlog
	CurrentItemID string   // Item currently being executed, empty if none
}

// HashPRD returns the deterministic content hash used to match a PRD to an
// existing session: the first 12 hex characters of its SHA-256 digest.
func HashPRD(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:prdHashLength]
}

// SessionDirName formats a session directory name: {sequence}_{hash} with a
// zero-padded three-digit sequence.
func SessionDirName(sequence int, hash string) string {
	return fmt.Sprintf("%03d_%s", sequence, hash)
}

// ParseSessionDirName splits a session directory name into its sequence and
// hash on the first underscore. ok is false if the name does not match the
// {sequence}_{hash} format.
func ParseSessionDirName(name string) (sequence int, hash string, ok bool) {
	seqStr, hash, found := strings.Cut(name, "_")
	if !found || seqStr == "" || hash == "" {
		return 0, "", false
	}
	sequence, err := strconv.Atoi(seqStr)
	if err != nil || sequence < 0 {
		return 0, "", false
	}
	return sequence, hash, true
}
