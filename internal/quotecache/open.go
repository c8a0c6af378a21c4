package quotecache

import (
	"fmt"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// OpenStore picks the store for a backend name. shared is the database-backed
// store used for the postgres backend; it is ignored otherwise. The returned
// close func is never nil.
func OpenStore(backend, sqlitePath string, shared Store) (Store, func() error, error) {
	noop := func() error { return nil }

	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case BackendPostgres:
		if shared == nil {
			return nil, noop, fmt.Errorf("postgres cache backend needs a database connection")
		}
		return shared, noop, nil
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", backend)
	}
}
