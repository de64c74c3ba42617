// Package exclusion tracks which grid positions are excluded from
// composition.
//
// The durable representation is a fixed-name marker subdirectory of the
// source directory: excluding a position moves its tile file(s) there,
// which also removes them from future catalog scans. A JSON journal inside
// the marker directory records the set plus an audit trail of toggles.
// The marker directory is ground truth: on load, any disagreement with the
// journal is resolved in the marker directory's favor and the journal is
// rebuilt.
package exclusion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gridstitch/gridstitch/pkg/tile"
)

// MarkerDirName is the fixed name of the exclusion marker subdirectory.
const MarkerDirName = "skipped"

// journalName is the state file inside the marker directory.
const journalName = "skipped.json"

// Entry is one audit record of a toggle.
type Entry struct {
	ID       string        `json:"id"`
	Position tile.Position `json:"position"`
	Action   string        `json:"action"` // "exclude" or "include"
	At       time.Time     `json:"at"`
}

// journal is the serialized state.
type journal struct {
	Excluded []tile.Position `json:"excluded"`
	History  []Entry         `json:"history,omitempty"`
}

// Store is the in-process view of the exclusion state for one directory.
// It is not safe for concurrent use; two sessions on the same directory
// are last-writer-wins.
type Store struct {
	dir     string
	parser  tile.Parser
	set     map[tile.Position]bool
	history []Entry
	logger  *log.Logger
}

// Option configures Load.
type Option func(*Store)

// WithLogger sets the logger used for reconciliation warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Load reads the persisted exclusion state for dir and reconciles it
// against the marker directory's actual contents. A directory with no
// marker subdirectory loads as an empty set.
func Load(dir string, parser tile.Parser, opts ...Option) (*Store, error) {
	s := &Store{
		dir:    dir,
		parser: parser,
		set:    make(map[tile.Position]bool),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var recorded journal
	data, err := os.ReadFile(s.journalPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &recorded); err != nil {
			s.logger.Warn("exclusion journal unreadable, rebuilding from marker directory", "err", err)
			recorded = journal{}
		}
	case os.IsNotExist(err):
		// First run, nothing recorded.
	default:
		return nil, fmt.Errorf("read exclusion journal: %w", err)
	}
	s.history = recorded.History

	// Marker-directory membership is ground truth.
	actual, err := s.scanMarkerDir()
	if err != nil {
		return nil, err
	}
	for pos := range actual {
		s.set[pos] = true
	}

	if !samePositions(recorded.Excluded, s.set) {
		s.logger.Warn("exclusion journal disagrees with marker directory, trusting marker directory",
			"recorded", len(recorded.Excluded), "actual", len(s.set))
		if err := s.Save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the source directory the store manages.
func (s *Store) Dir() string { return s.dir }

// MarkerDir returns the path of the marker subdirectory.
func (s *Store) MarkerDir() string { return filepath.Join(s.dir, MarkerDirName) }

func (s *Store) journalPath() string { return filepath.Join(s.MarkerDir(), journalName) }

// Excluded reports whether pos is currently excluded.
func (s *Store) Excluded(pos tile.Position) bool { return s.set[pos] }

// Len returns the number of excluded positions.
func (s *Store) Len() int { return len(s.set) }

// Positions returns the excluded positions in row-major order.
func (s *Store) Positions() []tile.Position {
	out := make([]tile.Position, 0, len(s.set))
	for pos := range s.set {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// History returns the audit trail of toggles, oldest first.
func (s *Store) History() []Entry { return s.history }

// Toggle flips the exclusion state of pos and persists the change before
// returning. Excluding moves the position's tile file(s) into the marker
// directory; re-including moves them back. The journal is written before
// files move, so a crash between the two leaves a state that load-time
// reconciliation resolves from the marker directory.
//
// Toggle returns the new state (true = now excluded). On any failure the
// in-memory set is restored and the error reported; nothing is half-done
// silently.
func (s *Store) Toggle(pos tile.Position) (bool, error) {
	if s.set[pos] {
		return false, s.include(pos)
	}
	return true, s.exclude(pos)
}

func (s *Store) exclude(pos tile.Position) error {
	files, err := s.filesAt(s.dir, pos)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tile file for position %s in %s", pos, s.dir)
	}
	if err := os.MkdirAll(s.MarkerDir(), 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	// Journal first, then the move. A crash in between leaves files the
	// load-time reconciliation recovers from.
	s.set[pos] = true
	s.record(pos, "exclude")
	if err := s.Save(); err != nil {
		delete(s.set, pos)
		return err
	}
	for _, name := range files {
		if err := os.Rename(filepath.Join(s.dir, name), filepath.Join(s.MarkerDir(), name)); err != nil {
			delete(s.set, pos)
			_ = s.Save()
			return fmt.Errorf("move %s into marker directory: %w", name, err)
		}
	}
	return nil
}

func (s *Store) include(pos tile.Position) error {
	files, err := s.filesAt(s.MarkerDir(), pos)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no tile file for position %s in %s", pos, s.MarkerDir())
	}

	delete(s.set, pos)
	s.record(pos, "include")
	if err := s.Save(); err != nil {
		s.set[pos] = true
		return err
	}
	for _, name := range files {
		if err := os.Rename(filepath.Join(s.MarkerDir(), name), filepath.Join(s.dir, name)); err != nil {
			s.set[pos] = true
			_ = s.Save()
			return fmt.Errorf("move %s out of marker directory: %w", name, err)
		}
	}
	return nil
}

// Save writes the journal atomically (temp file + rename).
func (s *Store) Save() error {
	if err := os.MkdirAll(s.MarkerDir(), 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}
	data, err := json.MarshalIndent(journal{Excluded: s.Positions(), History: s.history}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.journalPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write exclusion journal: %w", err)
	}
	if err := os.Rename(tmp, s.journalPath()); err != nil {
		return fmt.Errorf("replace exclusion journal: %w", err)
	}
	return nil
}

func (s *Store) record(pos tile.Position, action string) {
	s.history = append(s.history, Entry{
		ID:       uuid.NewString(),
		Position: pos,
		Action:   action,
		At:       time.Now().UTC(),
	})
}

// filesAt lists the file names in dir whose parsed position equals pos,
// any label.
func (s *Store) filesAt(dir string, pos tile.Position) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if p, _, ok := s.parser.Parse(e.Name()); ok && p == pos {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanMarkerDir parses the marker directory contents into a position set.
func (s *Store) scanMarkerDir() (map[tile.Position]bool, error) {
	set := make(map[tile.Position]bool)
	entries, err := os.ReadDir(s.MarkerDir())
	if os.IsNotExist(err) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan marker directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if pos, _, ok := s.parser.Parse(e.Name()); ok {
			set[pos] = true
		}
	}
	return set, nil
}

func samePositions(list []tile.Position, set map[tile.Position]bool) bool {
	if len(list) != len(set) {
		return false
	}
	for _, p := range list {
		if !set[p] {
			return false
		}
	}
	return true
}
