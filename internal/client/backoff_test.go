package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 30 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		require.Equal(t, w, b.Next(), "attempt %d", i)
	}
	require.Equal(t, len(want), b.Attempts())

	b.Reset()
	require.Zero(t, b.Attempts())
	require.Equal(t, time.Second, b.Next())
}
