package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewUnreachable tests that a dead address fails at construction
func TestNewUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := New(ctx, WithAddress("127.0.0.1:1"), WithDB(2))
	assert.Nil(t, c)
	assert.ErrorContains(t, err, "ping redis at 127.0.0.1:1")
}
