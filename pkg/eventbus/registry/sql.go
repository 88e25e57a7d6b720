package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers the "pgx" driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver

	"github.com/randalmurphal/eventbus/pkg/eventbus"
	"github.com/randalmurphal/eventbus/pkg/eventbus/event"
	"github.com/randalmurphal/eventbus/pkg/eventbus/observability"
)

// ErrClosed indicates the persistent registry has been closed.
var ErrClosed = errors.New("registry closed")

// Binding is one persisted registration.
type Binding struct {
	Sequence     int64
	Key          string
	Handler      string
	RegisteredAt time.Time
}

// SQL persists the registration manifest (which handler is bound to which
// key, in which order) to SQLite or PostgreSQL while serving lookups from
// memory.
//
// Handler instances cannot be stored, so after a restart the manifest is
// turned back into live bindings with Restore and a Catalog that maps the
// persisted names to keys and handlers.
//
// AddHandler never fails: if the row cannot be written the binding is still
// served from memory, the failure is logged, and LastError reports it.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.RWMutex
	closed  bool

	live    *Memory
	lastErr error
	logger  *slog.Logger
	timeout time.Duration
}

// Compile-time interface check.
var _ eventbus.Registry = (*SQL)(nil)

// SQLOption configures a persistent registry.
type SQLOption func(*SQL)

// WithSQLLogger sets the logger used to report persistence failures.
func WithSQLLogger(logger *slog.Logger) SQLOption {
	return func(s *SQL) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWriteTimeout bounds the insert made by AddHandler, which has no
// caller context. Default: 5s.
func WithWriteTimeout(d time.Duration) SQLOption {
	return func(s *SQL) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSQLite opens (or creates) a registry database.
// The path should be a file path (e.g., "./bindings.db") or ":memory:" for testing.
func NewSQLite(path string, opts ...SQLOption) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases from splitting per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return Open(context.Background(), db, DialectSQLite, opts...)
}

// NewPostgres connects to PostgreSQL through the pgx driver.
func NewPostgres(ctx context.Context, dsn string, opts ...SQLOption) (*SQL, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return Open(ctx, db, DialectPostgres, opts...)
}

// Open wraps an existing database handle and applies the schema
// migrations. The registry takes ownership of db and closes it on Close.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, opts ...SQLOption) (*SQL, error) {
	if err := migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQL{
		db:      db,
		dialect: dialect,
		live:    NewMemory(),
		logger:  observability.DiscardLogger(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dialect returns the SQL flavor of the underlying database.
func (s *SQL) Dialect() Dialect {
	return s.dialect
}

// AddHandler binds h under key and appends the binding to the manifest.
func (s *SQL) AddHandler(key event.Key, h eventbus.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.live.AddHandler(key, h)

	if s.closed {
		s.recordErrorLocked(key, h, ErrClosed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO registrations (event_key, handler, registered_at)
		VALUES (?, ?, ?)
	`), key.String(), eventbus.HandlerName(h), time.Now().UnixNano())
	if err != nil {
		s.recordErrorLocked(key, h, fmt.Errorf("save binding: %w", err))
	}
}

// Handlers returns the live handlers bound under key.
func (s *SQL) Handlers(key event.Key) []eventbus.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live.Handlers(key)
}

// Bindings returns the persisted manifest ordered by registration sequence.
func (s *SQL) Bindings(ctx context.Context) ([]Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.bindingsLocked(ctx)
}

func (s *SQL) bindingsLocked(ctx context.Context) ([]Binding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, event_key, handler, registered_at
		FROM registrations
		ORDER BY sequence ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	bindings := make([]Binding, 0)
	for rows.Next() {
		var b Binding
		var nanos int64
		if err := rows.Scan(&b.Sequence, &b.Key, &b.Handler, &nanos); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		b.RegisteredAt = time.Unix(0, nanos).UTC()
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}

// Restore rebuilds the live bindings from the persisted manifest, in the
// stored order, replacing whatever was bound in memory. Bindings whose key
// or handler the catalog cannot resolve are skipped and reported in the
// returned error; the resolvable ones are still restored.
func (s *SQL) Restore(ctx context.Context, catalog *Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	bindings, err := s.bindingsLocked(ctx)
	if err != nil {
		return err
	}

	live := NewMemory()
	var errs []error
	for _, b := range bindings {
		key, h, err := catalog.resolve(b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		live.AddHandler(key, h)
	}

	s.live = live
	return errors.Join(errs...)
}

// Clear removes every binding, persisted and live.
func (s *SQL) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM registrations"); err != nil {
		return fmt.Errorf("clear bindings: %w", err)
	}
	s.live = NewMemory()
	return nil
}

// LastError returns the most recent persistence failure, if any.
func (s *SQL) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close releases the database. Live bindings keep serving lookups.
// Close is idempotent.
func (s *SQL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQL) recordErrorLocked(key event.Key, h eventbus.Handler, err error) {
	s.lastErr = err
	s.logger.Warn("binding not persisted",
		slog.String("key", key.String()),
		slog.String("handler", eventbus.HandlerName(h)),
		slog.String("error", err.Error()),
	)
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
