package storage

import "context"

// Provider executes named artifact operations against a backing store. The
// generator issues operations such as "generator.ensure_dir" or
// "generator.write" and passes positional arguments; providers decide how to
// persist them (local filesystem, in-memory recorder, object store).
type Provider interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) (Result, error)
}

// Config captures the runtime configuration for a storage provider.
type Config struct {
	Name     string
	Driver   string
	Root     string
	ReadOnly bool
	Options  map[string]any
}

// Rows iterates over query results.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Result reports how many artifacts an operation touched.
type Result interface {
	RowsAffected() (int64, error)
}

// Operation names understood by artifact providers.
const (
	OpEnsureDir = "generator.ensure_dir"
	OpWrite     = "generator.write"
	OpRead      = "generator.read"
	OpRemove    = "generator.remove"
)
