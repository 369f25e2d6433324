// Package memory persists conversation context as ordered encrypted
// fragment files and recalls them as a single prompt block.
//
// Memory Management Strategy:
// - Long-term memory is a directory of encrypted fragment files named
//   {prefix}_{NNN}{ext} with a zero-padded monotonically increasing index.
// - On startup all fragments are decrypted into an ordered in-memory list.
// - The loaded fragments re-enter a session exactly once, as part of the
//   first user message; they are never injected turn-by-turn.
// - On shutdown the current session's turns are trimmed, formatted and
//   either appended to the latest fragment (decrypt, concatenate,
//   re-encrypt, overwrite in place) while it is at or below the size
//   threshold, or written as a new fragment at the next index.
// - Clearing memory deletes every fragment file and empties the list.
//
// Persistence is best-effort: save and clear failures are logged and
// swallowed so a persistence problem never crashes the session.

package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/praxisapocalyptica/jamie/model"
	"github.com/praxisapocalyptica/jamie/vault"
)

// Fragment formatting markers. Changing these changes the on-disk
// plaintext format of newly written fragments.
const (
	sessionFragmentHeader = "--- Previous Conversation History ---"
	fragmentSeparator     = "\n--- Memory Fragment ---\n"

	initialContextHeader      = "--- Context ---"
	initialInstructionsHeader = "--- Instructions ---"
	initialStartMarker        = "--- Start ---"

	wrapWidth = 80
)

// DefaultThresholdBytes is the roll-over threshold for fragment files.
const DefaultThresholdBytes int64 = 100 * 1024 * 1024

// Config holds the fragment-store configuration.
type Config struct {
	// Dir is the directory holding fragment files. Created on first save.
	Dir string
	// Prefix names the fragment files, e.g. "memory" -> memory_000.enc.
	Prefix string
	// Extension is the fragment file extension including the dot.
	Extension string
	// ThresholdBytes is the on-disk size above which the latest fragment
	// stops accepting appends and a new index is started. Zero selects
	// DefaultThresholdBytes.
	ThresholdBytes int64
	// MaxTurnsToSave controls session trimming before save: nil keeps
	// every turn, 0 keeps none (save becomes a no-op), N > 0 keeps the
	// last N user+model pairs.
	MaxTurnsToSave *int
	// Name and Purpose feed the initial instruction text sent when no
	// memory exists yet.
	Name    string
	Purpose string
}

// Store manages the encrypted fragment lifecycle. A single Store owns
// its directory exclusively; no locking is done because the design
// assumes one writer per directory.
type Store struct {
	cfg       Config
	protector *vault.Protector
	logger    *zap.Logger

	// fragments holds the decrypted long-term memory, newest last.
	fragments []string
}

// NewStore creates a fragment store. The protector is required; the
// directory does not have to exist yet.
func NewStore(cfg Config, protector *vault.Protector, logger *zap.Logger) (*Store, error) {
	if protector == nil {
		return nil, fmt.Errorf("memory: protector is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("memory: directory cannot be empty")
	}
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("memory: file prefix cannot be empty")
	}
	if cfg.Extension == "" || !strings.HasPrefix(cfg.Extension, ".") {
		return nil, fmt.Errorf("memory: extension must start with a dot, got %q", cfg.Extension)
	}
	if cfg.MaxTurnsToSave != nil && *cfg.MaxTurnsToSave < 0 {
		return nil, fmt.Errorf("memory: max turns to save must be non-negative, got %d", *cfg.MaxTurnsToSave)
	}
	if cfg.ThresholdBytes == 0 {
		cfg.ThresholdBytes = DefaultThresholdBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{cfg: cfg, protector: protector, logger: logger}, nil
}

// indexPattern matches fragment filenames and captures the index.
func (s *Store) indexPattern() *regexp.Regexp {
	return regexp.MustCompile(
		"^" + regexp.QuoteMeta(s.cfg.Prefix) + `_(\d+)` + regexp.QuoteMeta(s.cfg.Extension) + "$")
}

func (s *Store) fragmentPath(index int) string {
	return filepath.Join(s.cfg.Dir, fmt.Sprintf("%s_%03d%s", s.cfg.Prefix, index, s.cfg.Extension))
}

// indexedFile is a fragment file with its parsed index.
type indexedFile struct {
	index int
	path  string
}

// listFragmentFiles returns all fragment files ordered by embedded
// index. Files whose name does not parse are skipped with a warning.
func (s *Store) listFragmentFiles() ([]indexedFile, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("memory: failed to read directory %s: %w", s.cfg.Dir, err)
	}

	pattern := s.indexPattern()
	var files []indexedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			s.logger.Warn("skipping fragment with unparsable index",
				zap.String("file", entry.Name()))
			continue
		}
		files = append(files, indexedFile{index: index, path: filepath.Join(s.cfg.Dir, entry.Name())})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })
	return files, nil
}

// Load decrypts every fragment file in index order into the in-memory
// fragment list and returns it. Fragments that fail to decrypt or
// decode to whitespace are skipped. A missing directory or an empty
// directory yields an empty list, not an error.
func (s *Store) Load() []string {
	s.fragments = nil

	files, err := s.listFragmentFiles()
	if err != nil {
		s.logger.Warn("failed to enumerate memory fragments", zap.Error(err))
		return nil
	}

	for _, f := range files {
		blob, err := os.ReadFile(f.path)
		if err != nil {
			s.logger.Warn("failed to read fragment", zap.String("path", f.path), zap.Error(err))
			continue
		}
		if len(blob) == 0 {
			continue
		}
		plaintext, ok := s.protector.Decrypt(blob)
		if !ok {
			s.logger.Warn("failed to decrypt fragment, skipping", zap.String("path", f.path))
			continue
		}
		text := string(plaintext)
		if strings.TrimSpace(text) == "" {
			s.logger.Warn("fragment decrypted to empty text, skipping", zap.String("path", f.path))
			continue
		}
		s.fragments = append(s.fragments, text)
	}

	s.logger.Info("loaded memory fragments",
		zap.Int("count", len(s.fragments)),
		zap.String("dir", s.cfg.Dir))
	return s.Fragments()
}

// Fragments returns a copy of the loaded fragment texts, oldest first.
func (s *Store) Fragments() []string {
	out := make([]string, len(s.fragments))
	copy(out, s.fragments)
	return out
}

// FormatSession renders session turns into fragment plaintext: a header
// line, then per turn a role marker followed by the body wrapped at 80
// columns, with a blank line between turns. Turns with no text content
// are skipped; if nothing survives, the result is empty.
func (s *Store) FormatSession(turns []model.Turn) string {
	var b strings.Builder
	wrote := false

	for _, turn := range turns {
		text := strings.TrimSpace(turn.Text())
		if text == "" {
			continue
		}
		if turn.Role != model.RoleUser && turn.Role != model.RoleModel {
			s.logger.Warn("skipping turn with non-standard role", zap.String("role", string(turn.Role)))
			continue
		}
		if !wrote {
			b.WriteString(sessionFragmentHeader)
			b.WriteString("\n\n")
			wrote = true
		}
		b.WriteString(fmt.Sprintf("[%s]: ", displayRole(turn.Role)))
		b.WriteString(wrapBody(text))
		b.WriteString("\n\n")
	}

	if !wrote {
		return ""
	}
	return strings.TrimSpace(b.String())
}

func displayRole(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "User"
	case model.RoleModel:
		return "Model"
	default:
		return string(role)
	}
}

// wrapBody wraps text at the configured width and indents continuation
// lines two spaces so the role marker stands out.
func wrapBody(text string) string {
	wrapped := wordwrap.String(text, wrapWidth)
	lines := strings.Split(wrapped, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}

// trimTurns applies the max-turns-to-save policy: nil keeps everything,
// zero keeps nothing, N > 0 keeps the last 2N entries. A single orphan
// user turn with no model reply yet is kept as-is rather than discarded.
func (s *Store) trimTurns(turns []model.Turn) []model.Turn {
	if s.cfg.MaxTurnsToSave == nil {
		return turns
	}
	max := *s.cfg.MaxTurnsToSave
	if max == 0 {
		return nil
	}
	if len(turns) == 1 {
		return turns
	}
	keep := max * 2
	if len(turns) > keep {
		return turns[len(turns)-keep:]
	}
	return turns
}

// SaveSession persists the current session's turns. The trimmed,
// formatted text is appended to the latest fragment while that file is
// at or below the size threshold, otherwise written as a new fragment
// at the next index. Failures are logged and swallowed; persistence
// must never crash the calling session.
func (s *Store) SaveSession(turns []model.Turn) {
	formatted := s.FormatSession(s.trimTurns(turns))
	if strings.TrimSpace(formatted) == "" {
		s.logger.Debug("formatted session is empty, removing latest fragment instead of writing")
		s.deleteLatestFragment()
		return
	}

	files, err := s.listFragmentFiles()
	if err != nil {
		s.logger.Warn("save skipped: cannot enumerate fragments", zap.Error(err))
		return
	}

	if len(files) == 0 {
		s.writeNewFragment(0, formatted)
		return
	}

	last := files[len(files)-1]
	info, err := os.Stat(last.path)
	if err != nil {
		s.logger.Warn("save skipped: cannot stat latest fragment",
			zap.String("path", last.path), zap.Error(err))
		return
	}

	if info.Size() <= s.cfg.ThresholdBytes {
		s.appendToFragment(last.path, formatted)
		return
	}
	s.writeNewFragment(last.index+1, formatted)
}

// appendToFragment decrypts the existing fragment, concatenates the new
// text behind a separator, re-encrypts and overwrites in place.
func (s *Store) appendToFragment(path, newText string) {
	existing, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("append skipped: cannot read latest fragment",
			zap.String("path", path), zap.Error(err))
		return
	}
	plaintext, ok := s.protector.Decrypt(existing)
	if !ok {
		s.logger.Warn("append skipped: cannot decrypt latest fragment",
			zap.String("path", path))
		return
	}

	combined := string(plaintext) + fragmentSeparator + newText
	blob, err := s.protector.Encrypt([]byte(combined))
	if err != nil {
		s.logger.Warn("append skipped: re-encryption failed",
			zap.String("path", path), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, blob, 0600); err != nil {
		s.logger.Warn("append skipped: cannot overwrite fragment",
			zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Info("appended session to fragment",
		zap.String("path", path),
		zap.Int("encrypted_bytes", len(blob)))
}

func (s *Store) writeNewFragment(index int, text string) {
	blob, err := s.protector.Encrypt([]byte(text))
	if err != nil {
		s.logger.Warn("save skipped: encryption failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(s.cfg.Dir, 0700); err != nil {
		s.logger.Warn("save skipped: cannot create memory directory",
			zap.String("dir", s.cfg.Dir), zap.Error(err))
		return
	}
	path := s.fragmentPath(index)
	if err := os.WriteFile(path, blob, 0600); err != nil {
		s.logger.Warn("save skipped: cannot write fragment",
			zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Info("saved session as new fragment",
		zap.String("path", path),
		zap.Int("index", index),
		zap.Int("encrypted_bytes", len(blob)))
}

// deleteLatestFragment removes the highest-indexed fragment file, if any.
// Used when a save would otherwise write an empty fragment.
func (s *Store) deleteLatestFragment() {
	files, err := s.listFragmentFiles()
	if err != nil || len(files) == 0 {
		return
	}
	last := files[len(files)-1]
	if err := os.Remove(last.path); err != nil {
		s.logger.Warn("failed to remove latest fragment",
			zap.String("path", last.path), zap.Error(err))
		return
	}
	s.logger.Info("removed latest fragment", zap.String("path", last.path))
}

// ClearAll deletes every fragment file and empties the in-memory list.
// Per-file deletion errors are logged, not raised.
func (s *Store) ClearAll() {
	files, err := s.listFragmentFiles()
	if err != nil {
		s.logger.Warn("clear: cannot enumerate fragments", zap.Error(err))
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(f.path); err != nil {
			s.logger.Warn("clear: failed to remove fragment",
				zap.String("path", f.path), zap.Error(err))
			continue
		}
		removed++
	}
	s.fragments = nil
	s.logger.Info("cleared memory fragments", zap.Int("removed", removed))
}

// InitialContextPrompt renders the first user message of a new session.
// With loaded fragments it contains the context header, an explanation,
// the fragments joined by the separator, then the start marker. Without
// fragments it contains the initial instructions alone. This is the only
// mechanism by which long-term memory re-enters a session.
func (s *Store) InitialContextPrompt() string {
	var parts []string

	if len(s.fragments) > 0 {
		parts = append(parts,
			initialContextHeader,
			"The following text contains information from previous conversations or stored memories. Please use this as background context:",
			"",
			strings.Join(s.fragments, fragmentSeparator),
			"",
		)
	} else {
		parts = append(parts, initialInstructionsHeader)
		parts = append(parts, s.initialInstructions()...)
		parts = append(parts, "")
	}

	parts = append(parts, initialStartMarker, "Okay, I'm ready. How can I assist you today?")
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (s *Store) initialInstructions() []string {
	return []string{
		fmt.Sprintf("Can I call you %s?", s.cfg.Name),
		fmt.Sprintf("Can you change your purpose to be my %s?", s.cfg.Purpose),
		"All responses should be small within a paragraph and as precise and small as much possible.",
		"Please don't use emojis or any symbols like (*?) to respond.",
	}
}
