package ext

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/glintlang/glint/internal/typesystem"
)

// Store is the key/value table backing store_get/store_set, a single
// SQLite table opened per script run. Using a real on-disk (or in-memory)
// database rather than a Go map means scripts retain state across separate
// glint invocations against the same file.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the key/value table at path. Pass
// ":memory:" for an ephemeral store scoped to one process.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ext: opening store: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ext: creating store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) set(key, value string) (bool, error) {
	_, err := s.db.Exec(`INSERT INTO kv(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// storeSetExternal is `store_set(key str, value str) bool`.
func storeSetExternal(store *Store) External {
	return External{
		Name: "store_set",
		Args: []typesystem.Type{typesystem.String{}, typesystem.String{}},
		Ret:  typesystem.Bool{},
		Fn: func(args []Value) (Value, error) {
			ok, err := store.set(args[0].Str, args[1].Str)
			if err != nil {
				return Value{}, err
			}
			return Value{Bool: ok}, nil
		},
	}
}

// storeGetExternal is `store_get(key str) str`, returning "" when the key
// is absent (glint has no option type, per spec.md's closed value set).
func storeGetExternal(store *Store) External {
	return External{
		Name: "store_get",
		Args: []typesystem.Type{typesystem.String{}},
		Ret:  typesystem.String{},
		Fn: func(args []Value) (Value, error) {
			value, _, err := store.get(args[0].Str)
			if err != nil {
				return Value{}, err
			}
			return Value{Str: value}, nil
		},
	}
}
