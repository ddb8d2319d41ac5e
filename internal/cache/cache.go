// Package cache implements a content-addressed store of compiled
// output, backed by modernc.org/sqlite (a cgo-free pure-Go driver).
// The cache key is a hash of the source text and the active build
// configuration, grounded in the teacher's own ext-host-binary cache
// (internal/ext/cache.go), generalized from a filesystem binary cache
// to a database-backed compiled-text cache.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tealc-lang/sclc/internal/compiler"
	"github.com/tealc-lang/sclc/internal/config"
)

// Store wraps a sqlite-backed table of previously compiled results,
// keyed by Key(source, cfg). It never changes what a given input
// compiles to -- a cache hit and a fresh compile always yield the same
// Result -- it only elides redundant work.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists. path may be ":memory:" for a process-
// local, non-persistent cache, which the compile service uses by
// default so concurrent requests share one warm cache without needing
// a file on disk.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS compile_results (
	key         TEXT PRIMARY KEY,
	output      TEXT NOT NULL,
	errors_json TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
`

// Key computes the cache key for a given source and build config:
// sha256(sourceText || configBytes), hex-encoded.
func Key(source string, cfg config.BuildConfig) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write(cfg.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}

// storedErrors is the JSON-serializable shape persisted for a failed
// compile, since Go's error interface itself doesn't round-trip.
type storedErrors []string

// Lookup returns a previously cached Result for key, if any.
func (s *Store) Lookup(key string) (compiler.Result, bool, error) {
	var output, errorsJSON string
	row := s.db.QueryRow(`SELECT output, errors_json FROM compile_results WHERE key = ?`, key)
	switch err := row.Scan(&output, &errorsJSON); err {
	case nil:
	case sql.ErrNoRows:
		return compiler.Result{}, false, nil
	default:
		return compiler.Result{}, false, fmt.Errorf("cache lookup: %w", err)
	}

	var msgs storedErrors
	if err := json.Unmarshal([]byte(errorsJSON), &msgs); err != nil {
		return compiler.Result{}, false, fmt.Errorf("decoding cached errors: %w", err)
	}
	result := compiler.Result{Output: output}
	for _, m := range msgs {
		result.Errors = append(result.Errors, fmt.Errorf("%s", m))
	}
	return result, true, nil
}

// Store persists result under key, overwriting any prior entry -- a
// cache key is a pure function of its inputs, so a collision only ever
// means "the same source and config compiled again."
func (s *Store) Store(key string, result compiler.Result) error {
	msgs := make(storedErrors, len(result.Errors))
	for i, e := range result.Errors {
		msgs[i] = e.Error()
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encoding errors for cache: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO compile_results (key, output, errors_json, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET output = excluded.output, errors_json = excluded.errors_json, created_at = excluded.created_at`,
		key, result.Output, string(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// CompileCached runs c.Compile(source, cfg) only on a cache miss,
// storing the result for next time either way.
func (s *Store) CompileCached(c *compiler.Compiler, source string, cfg config.BuildConfig) (compiler.Result, error) {
	key := Key(source, cfg)
	if cached, ok, err := s.Lookup(key); err != nil {
		return compiler.Result{}, err
	} else if ok {
		return cached, nil
	}
	result := c.Compile(source, cfg)
	if err := s.Store(key, result); err != nil {
		return result, err
	}
	return result, nil
}
