package mapping

// store.go keeps mapping sessions in memory between the upload and the
// user's review. A session holds the sheet's columns, the suggested
// mapping, the user's pinned overrides and the latest validation report.
//
// Sessions expire TTL after their last change; Run sweeps them out in the
// background. Nothing is written to disk.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colmap/internal/automap"
	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/logging"
	"github.com/JonMunkholm/colmap/internal/sheet"
)

var (
	ErrSessionNotFound = errors.New("mapping session not found")
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownColumn   = errors.New("unknown column")
)

// DefaultTTL is used when NewStore is given a non-positive ttl.
const DefaultTTL = 30 * time.Minute

// Session is one sheet being mapped onto one catalog.
type Session struct {
	ID         string          `json:"id"`
	CatalogKey string          `json:"catalog"`
	FileName   string          `json:"file_name"`
	SheetName  string          `json:"sheet_name,omitempty"`
	Fields     []catalog.Field `json:"fields"`
	Columns    []string        `json:"columns"`
	Samples    [][]string      `json:"samples"`
	Mapping    automap.Mapping `json:"mapping"`
	Overrides  automap.Mapping `json:"overrides"` // fields pinned by the user
	Report     Report          `json:"report"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Unmapped returns the catalog fields with no column, in catalog order.
func (s *Session) Unmapped() []catalog.Field {
	var out []catalog.Field
	for _, f := range s.Fields {
		if s.Mapping[f.Key] == "" {
			out = append(out, f)
		}
	}
	return out
}

func (s *Session) clone() *Session {
	c := *s
	c.Fields = append([]catalog.Field(nil), s.Fields...)
	c.Columns = append([]string(nil), s.Columns...)
	c.Samples = make([][]string, len(s.Samples))
	for i, col := range s.Samples {
		c.Samples[i] = append([]string(nil), col...)
	}
	c.Mapping = s.Mapping.Clone()
	c.Overrides = s.Overrides.Clone()
	c.Report = Report{
		Errors:   append([]Issue{}, s.Report.Errors...),
		Warnings: append([]Issue{}, s.Report.Warnings...),
	}
	return &c
}

// Store is an in-memory, TTL-bounded set of sessions. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	opts     automap.Options
	now      func() time.Time
}

// NewStore returns an empty store. Matching in every session uses opts.
func NewStore(ttl time.Duration, opts automap.Options) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		opts:     opts,
		now:      time.Now,
	}
}

// TTL returns how long an idle session is kept.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create maps sh onto cat and stores the result as a new session.
func (s *Store) Create(ctx context.Context, cat catalog.Catalog, sh *sheet.Sheet) (*Session, error) {
	if sh == nil {
		return nil, fmt.Errorf("create session: %w", sheet.ErrEmptySheet)
	}

	fileName, sheetName := sh.File, sh.Name
	if fileName == "" || fileName == sheetName {
		fileName, sheetName = sh.Name, ""
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.New().String(),
		CatalogKey: cat.Key,
		FileName:   fileName,
		SheetName:  sheetName,
		Fields:     append([]catalog.Field(nil), cat.Fields...),
		Columns:    append([]string(nil), sh.Headers...),
		Samples:    sh.Samples,
		Overrides:  automap.Mapping{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.remap(sess)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	out := sess.clone()
	s.mu.Unlock()

	logging.WithFields(logging.WithSession(ctx, sess.ID),
		"catalog", cat.Key,
		"columns", len(sess.Columns),
	).Info("mapping session created",
		"mapped", len(sess.Mapping),
		"errors", len(sess.Report.Errors),
		"warnings", len(sess.Report.Warnings),
	)

	return out, nil
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.clone(), nil
}

// Override pins fieldKey to column. An empty column removes the pin and
// leaves the field unmapped until the next Remap. The matcher is not run
// again; the report is.
func (s *Store) Override(ctx context.Context, id, fieldKey, column string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if !hasField(sess.Fields, fieldKey) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, fieldKey)
	}
	if column != "" && !hasColumn(sess.Columns, column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	if column == "" {
		delete(sess.Overrides, fieldKey)
		delete(sess.Mapping, fieldKey)
	} else {
		sess.Overrides[fieldKey] = column
		sess.Mapping[fieldKey] = column
	}
	sess.Report = Validate(sess.Mapping, sess.Fields, sess.Columns)
	sess.UpdatedAt = s.now()

	logging.FromContext(logging.WithSession(ctx, id)).Info("mapping override",
		"field", fieldKey,
		"column", column,
		"errors", len(sess.Report.Errors),
	)

	return sess.clone(), nil
}

// Remap runs the matcher again with the current overrides pinned.
func (s *Store) Remap(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	s.remap(sess)
	sess.UpdatedAt = s.now()

	logging.FromContext(logging.WithSession(ctx, id)).Info("mapping session remapped",
		"pinned", len(sess.Overrides),
		"mapped", len(sess.Mapping),
	)

	return sess.clone(), nil
}

// Delete removes a session. Unknown IDs are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired ones included until
// the next Sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops every session idle for longer than the TTL at now and
// returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	log := logging.FromContext(ctx)
	log.Info("session sweeper started", "ttl", s.ttl, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				log.Debug("expired mapping sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

// remap recomputes the mapping and report. Callers hold the lock or own
// sess exclusively.
func (s *Store) remap(sess *Session) {
	fields := catalog.Catalog{Fields: sess.Fields}.AutomapFields()
	sess.Mapping = automap.ReconcileWith(fields, sess.Columns, sess.Overrides, s.opts)
	sess.Report = Validate(sess.Mapping, sess.Fields, sess.Columns)
}

func (s *Store) lookup(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess, s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.UpdatedAt) > s.ttl
}

func hasField(fields []catalog.Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func hasColumn(columns []string, col string) bool {
	for _, c := range columns {
		if c == col {
			return true
		}
	}
	return false
}
