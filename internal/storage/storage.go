// Package storage is the access facade over the cricket SQLite database:
// it fetches the database bytes once (from a URL or local path, with a disk
// byte-cache), opens them through modernc.org/sqlite, and hands query
// results back as plain records. It issues SQL; it does not interpret it.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	_ "modernc.org/sqlite"

	"github.com/dpathania/cricket-atlas/internal/model"
)

var (
	// ErrNotInitialized is returned for queries against a handle that was
	// never opened or has been closed.
	ErrNotInitialized = errors.New("storage: database not initialized")

	// ErrSourceUnavailable wraps fetch/open failures of the database bytes.
	// The one fatal error class: without the bytes there is nothing to do.
	ErrSourceUnavailable = errors.New("storage: database source unavailable")
)

// Options tunes how the database source is fetched and opened.
type Options struct {
	// CacheDir is where fetched database bytes are kept. Empty falls back
	// to the OS temp directory.
	CacheDir string
	// HTTPTimeout bounds the fetch of a remote source. Zero means 60s.
	HTTPTimeout time.Duration
	Logger      *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// DB wraps an opened SQLite handle.
type DB struct {
	mu   sync.RWMutex
	conn *sql.DB
	log  *zap.Logger
}

// Opener deduplicates opens: concurrent Open calls for the same source
// share one in-flight fetch+open and receive the same handle. A failed open
// is not cached, so a retry is always possible.
type Opener struct {
	opts  Options
	group singleflight.Group

	mu      sync.Mutex
	handles map[string]*DB
}

// NewOpener builds an Opener with the given options.
func NewOpener(opts Options) *Opener {
	return &Opener{opts: opts, handles: make(map[string]*DB)}
}

// Open fetches (if remote) and opens the database at source. Idempotent per
// source for the lifetime of the Opener.
func (o *Opener) Open(source string) (*DB, error) {
	o.mu.Lock()
	if db, ok := o.handles[source]; ok {
		o.mu.Unlock()
		return db, nil
	}
	o.mu.Unlock()

	v, err, _ := o.group.Do(source, func() (any, error) {
		db, err := Open(source, o.opts)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.handles[source] = db
		o.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DB), nil
}

// Close closes and forgets every handle the Opener produced.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var firstErr error
	for src, db := range o.handles {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(o.handles, src)
	}
	return firstErr
}

// Open opens the SQLite database at source directly. source may be an
// http(s) URL (fetched through the byte cache), a local file path, or
// ":memory:" for tests.
func Open(source string, opts Options) (*DB, error) {
	log := opts.logger()

	path := source
	if isRemote(source) {
		var err error
		path, err = fetchToCache(source, opts)
		if err != nil {
			return nil, err
		}
	} else if source != ":memory:" {
		// The driver happily creates a missing file, which would turn a
		// typo'd path into an empty database instead of an error.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: stat %s: %v", ErrSourceUnavailable, path, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}
	// Single connection: queries are synchronous from the caller's side, and
	// ":memory:" fixtures exist per connection.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceUnavailable, path, err)
	}
	return &DB{conn: conn, log: log}, nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// cacheKey derives a stable filename for a source URL.
func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:8]) + ".db"
}

// Close releases the underlying connection. Subsequent queries return
// ErrNotInitialized.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

func (db *DB) handle() (*sql.DB, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.conn == nil {
		return nil, ErrNotInitialized
	}
	return db.conn, nil
}

// QueryAll runs a parameterized query and returns every row as a record.
// NULL column values stay nil; TEXT comes back as string, never []byte.
func (db *DB) QueryAll(query string, args ...any) ([]model.Row, error) {
	conn, err := db.handle()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []model.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(model.Row, len(cols))
		for i, c := range cols {
			rec[c] = normalizeValue(vals[i])
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns printable column names and
// cell strings, for the sql diagnostics command. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	conn, err := db.handle()
	if err != nil {
		return nil, nil, err
	}
	rows, err := conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		cells := make([]string, len(cols))
		for i, v := range vals {
			switch t := normalizeValue(v).(type) {
			case nil:
				cells[i] = "NULL"
			case string:
				cells[i] = t
			default:
				cells[i] = fmt.Sprintf("%v", t)
			}
		}
		out = append(out, cells)
	}
	return cols, out, rows.Err()
}

// Exec applies a statement. The engine never writes to the source database;
// this exists for fixture/bootstrap setup (tests build schemas with it).
func (db *DB) Exec(query string, args ...any) error {
	conn, err := db.handle()
	if err != nil {
		return err
	}
	_, err = conn.Exec(query, args...)
	return err
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
