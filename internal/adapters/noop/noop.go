package noop

import (
	"context"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Storage returns a provider that accepts every operation and stores
// nothing. Reads always come back empty.
func Storage() interfaces.StorageProvider {
	return storageAdapter{}
}

type storageAdapter struct{}

func (storageAdapter) Query(context.Context, string, ...any) (interfaces.Rows, error) {
	return emptyRows{}, nil
}

func (storageAdapter) Exec(context.Context, string, ...any) (interfaces.Result, error) {
	return emptyResult{}, nil
}

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return nil }
func (emptyRows) Close() error      { return nil }

type emptyResult struct{}

func (emptyResult) RowsAffected() (int64, error) { return 0, nil }
