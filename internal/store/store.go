// Package store persists the tracker dataset as a single JSON document in a
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/theirongolddev/stashtrack/internal/clock"
	"github.com/theirongolddev/stashtrack/internal/migrate"
	"github.com/theirongolddev/stashtrack/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Options configures a Store. Zero values fall back to the system clock,
// the local timezone and the built-in seed.
type Options struct {
	Clock    clock.Clock
	Location *time.Location
	Seed     func() model.Dataset
}

// Store owns the persisted dataset. Every operation runs in one SQLite write
// transaction, so a load and the save that follows it inside Update are never
// interleaved with another caller, in this process or another.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	opts Options
}

// Open opens or creates the database at the given path.
func Open(dbPath string, opts Options) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening tracker db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if opts.Clock == nil {
		opts.Clock = clock.System{Loc: opts.Location}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Seed == nil {
		opts.Seed = DefaultSeed
	}

	return &Store{db: db, opts: opts}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted dataset. A missing or unreadable document is
// replaced by the seed; a legacy document is migrated. Either way the result
// is written back before returning. Errors come only from the database.
func (s *Store) Load() (model.Dataset, error) {
	var out model.Dataset
	err := s.inTx(func(c *sql.Conn) error {
		var err error
		out, err = s.load(c)
		return err
	})
	return out, err
}

// Save stamps the dataset and writes it as a whole.
func (s *Store) Save(ds model.Dataset) (model.Dataset, error) {
	var out model.Dataset
	err := s.inTx(func(c *sql.Conn) error {
		var err error
		out, err = s.save(c, ds)
		return err
	})
	return out, err
}

// Update loads the dataset, applies fn to a private copy and saves the
// result. When fn fails nothing is written. The read and the write share one
// write transaction, so other processes using the same file wait for it.
func (s *Store) Update(fn func(model.Dataset) (model.Dataset, error)) (model.Dataset, error) {
	var out model.Dataset
	err := s.inTx(func(c *sql.Conn) error {
		current, err := s.load(c)
		if err != nil {
			return err
		}
		next, err := fn(current.Clone())
		if err != nil {
			return err
		}
		out, err = s.save(c, next)
		return err
	})
	if err != nil {
		return model.Dataset{}, err
	}
	return out, nil
}

// Clear deletes the persisted document. The next Load reseeds. Callers are
// responsible for confirming with the user first.
func (s *Store) Clear() error {
	return s.inTx(func(c *sql.Conn) error {
		_, err := c.ExecContext(context.Background(), "DELETE FROM documents WHERE storage_key = ?", DocumentKey)
		if err != nil {
			return fmt.Errorf("clearing dataset: %w", err)
		}
		return nil
	})
}

// inTx runs fn inside BEGIN IMMEDIATE on a dedicated connection. The mutex
// orders callers of this Store; the SQLite write lock orders every process
// sharing the file.
func (s *Store) inTx(fn func(c *sql.Conn) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	c, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() { _ = c.Close() }()

	if _, err := c.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("beginning write transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = c.ExecContext(ctx, "ROLLBACK")
		}
	}()

	if err = fn(c); err != nil {
		return err
	}
	if _, err = c.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("committing dataset: %w", err)
	}
	return nil
}

func (s *Store) load(c *sql.Conn) (model.Dataset, error) {
	raw, err := read(c)
	if errors.Is(err, sql.ErrNoRows) {
		return s.save(c, s.opts.Seed())
	}
	if err != nil {
		return model.Dataset{}, err
	}

	doc, err := migrate.Decode(raw)
	if err != nil {
		log.Printf("stashtrack: stored dataset unreadable, reseeding: %v", err)
		return s.save(c, s.opts.Seed())
	}

	ds, rep := migrate.Migrate(doc, s.opts.Location)
	if rep.Changed() {
		log.Printf("stashtrack: migrated stored dataset from %s (%d timestamps normalized)",
			rep.From, rep.TimestampsNormalized)
		return s.save(c, ds)
	}
	return ds, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func read(q rowQuerier) ([]byte, error) {
	var body string
	err := q.QueryRowContext(context.Background(), "SELECT body FROM documents WHERE storage_key = ?", DocumentKey).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return []byte(body), nil
}

func (s *Store) save(c *sql.Conn, ds model.Dataset) (model.Dataset, error) {
	ds.Normalize()
	now := s.opts.Clock.Now().UTC()
	ds.Metadata.Version = model.CurrentVersion
	ds.Metadata.LastUpdated = now.Format("2006-01-02T15:04:05.000Z07:00")

	body, err := json.Marshal(ds)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("encoding dataset: %w", err)
	}

	_, err = c.ExecContext(context.Background(), `INSERT OR REPLACE INTO documents (storage_key, body, updated_at)
		VALUES (?, ?, ?)`, DocumentKey, string(body), now.Format(time.RFC3339))
	if err != nil {
		return model.Dataset{}, fmt.Errorf("writing dataset: %w", err)
	}
	return ds, nil
}

// writeRaw stores body verbatim. Tests use it to plant legacy or corrupt
// documents.
func (s *Store) writeRaw(body string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO documents (storage_key, body, updated_at)
		VALUES (?, ?, ?)`, DocumentKey, body, time.Now().UTC().Format(time.RFC3339))
	return err
}

// readRaw returns the stored body verbatim.
func (s *Store) readRaw() (string, error) {
	raw, err := read(s.db)
	return string(raw), err
}
