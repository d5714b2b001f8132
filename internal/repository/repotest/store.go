// Package repotest builds stores for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/xiaot623/gogo/ecosystem/internal/repository"
)

// NewSQLiteStore returns an in-memory store closed at test cleanup.
func NewSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
