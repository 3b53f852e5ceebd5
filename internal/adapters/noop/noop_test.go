package noop_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-blog/internal/adapters/noop"
	"github.com/goliatone/go-blog/pkg/interfaces"
	"github.com/goliatone/go-blog/pkg/storage"
)

func TestStorageDiscardsOperations(t *testing.T) {
	var provider interfaces.StorageProvider = noop.Storage()

	if _, err := provider.Exec(context.Background(), storage.OpWrite, "feed.xml", strings.NewReader("<rss/>")); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	rows, err := provider.Query(context.Background(), storage.OpRead, "feed.xml")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rows.Close()
	if rows.Next() {
		t.Fatalf("expected no rows")
	}
}
