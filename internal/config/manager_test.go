package config

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotIsStableAcrossReload(t *testing.T) {
	m := NewManager(Config{RequestTimeout: 10 * time.Second})

	before := m.Snapshot()
	require.Equal(t, uint64(1), m.Version())

	m.Reload(Config{RequestTimeout: 30 * time.Second})

	// The old snapshot is untouched; new callers see the new one.
	require.Equal(t, 10*time.Second, before.RequestTimeout)
	require.Equal(t, 30*time.Second, m.Snapshot().RequestTimeout)
	require.Equal(t, uint64(2), m.Version())
}

func TestReloadConcurrentReaders(t *testing.T) {
	m := NewManager(Config{MaxJSONDepth: 10})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				cfg := m.Snapshot()
				require.NotZero(t, cfg.MaxJSONDepth)
			}
		}()
	}
	for i := 0; i < 100; i++ {
		m.Reload(Config{MaxJSONDepth: i + 1})
	}
	wg.Wait()

	require.Equal(t, uint64(101), m.Version())
}
