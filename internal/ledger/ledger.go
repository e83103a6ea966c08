// Package ledger persists which alerts have already been acted on. Entries
// are append-only: a key, once present, permanently suppresses reprocessing.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Namespace separates the independent dedup keyspaces. A handler must check
// both the transport keyspace and the semantic keyspace before acting.
type Namespace string

const (
	// NamespaceMessage keys are opaque transport message ids.
	NamespaceMessage Namespace = "message"
	// NamespaceEvent keys are semantic event fingerprints.
	NamespaceEvent Namespace = "event"
	// NamespaceInvalid tracks unrecognized messages already logged verbatim.
	NamespaceInvalid Namespace = "invalid"
)

// Ledger is the processed-key store. Keys are held in memory for O(1) checks
// and appended to sqlite so restarts never replay an already-handled alert.
type Ledger struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	seen map[string]struct{}
}

// Open creates or opens the ledger database at path and hydrates the
// in-memory set from it.
func Open(path string) (*Ledger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("ledger path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS processed_keys (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}
	l := &Ledger{db: db, path: path, seen: make(map[string]struct{})}
	if err := l.hydrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) hydrate() error {
	rows, err := l.db.Query(`SELECT namespace, key FROM processed_keys`)
	if err != nil {
		return fmt.Errorf("hydrate ledger: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ns, key string
		if err := rows.Scan(&ns, &key); err != nil {
			return fmt.Errorf("hydrate ledger: %w", err)
		}
		l.seen[memKey(Namespace(ns), key)] = struct{}{}
	}
	return rows.Err()
}

// IsProcessed reports whether the key has already been acted on.
func (l *Ledger) IsProcessed(ns Namespace, key string) bool {
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[memKey(ns, key)]
	return ok
}

// MarkProcessed records the key. Marking an already-present key is a no-op.
func (l *Ledger) MarkProcessed(ns Namespace, key string) error {
	if key == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	mk := memKey(ns, key)
	if _, ok := l.seen[mk]; ok {
		return nil
	}
	if _, err := l.db.Exec(
		`INSERT INTO processed_keys (namespace, key, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace, key) DO NOTHING`,
		string(ns), key, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	l.seen[mk] = struct{}{}
	return nil
}

// Counts returns the number of recorded keys per namespace.
func (l *Ledger) Counts() map[Namespace]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Namespace]int, 3)
	for mk := range l.seen {
		ns, _, _ := strings.Cut(mk, "\x00")
		out[Namespace(ns)]++
	}
	return out
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}

func memKey(ns Namespace, key string) string {
	return string(ns) + "\x00" + key
}
