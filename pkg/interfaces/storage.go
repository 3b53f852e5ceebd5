package interfaces

import (
	"github.com/goliatone/go-blog/pkg/storage"
)

// StorageProvider is the artifact storage contract used by the generator.
type StorageProvider = storage.Provider

// Result aliases storage.Result.
type Result = storage.Result

// Rows aliases storage.Rows.
type Rows = storage.Rows
