package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Table-driven round-trip of the username context helpers
func TestContextHelpers_TableDriven(t *testing.T) {
	test := []struct {
		name     string
		withFunc func(context.Context) context.Context
		Value    string
		expectOk bool
	}{
		{"username - present", func(ctx context.Context) context.Context { return WithUsername(ctx, "alice") }, "alice", true},
		{"username - missing", func(ctx context.Context) context.Context { return ctx }, "", false},
		{"username - empty", func(ctx context.Context) context.Context { return WithUsername(ctx, "") }, "", false},
		{"username - wrong type", func(ctx context.Context) context.Context { return context.WithValue(ctx, UsernameKey, 42) }, "", false},
	}

	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.withFunc(context.Background())
			val, ok := GetUsername(ctx)
			assert.Equal(t, tt.Value, val)
			assert.Equal(t, tt.expectOk, ok)
		})
	}
}
