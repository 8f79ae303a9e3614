package evidenceid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratesValidIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := New()
		assert.True(t, strings.HasPrefix(id, "ev_"))
		assert.True(t, IsValid(id), "id %q", id)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestNewIsSafeForConcurrentUse(t *testing.T) {
	const workers = 16
	const perWorker = 200

	results := make([][]string, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(slot int) {
			defer wg.Done()
			ids := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				ids = append(ids, New())
			}
			results[slot] = ids
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers*perWorker)
	for _, ids := range results {
		for _, id := range ids {
			require.True(t, IsValid(id), "id %q", id)
			require.False(t, seen[id], "duplicate id %q", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("ev_not-a-ulid")
	require.Error(t, err)

	assert.False(t, IsValid("media_01h2xcejqtf2nbrexx3vqjhp41"))
	assert.False(t, IsValid(""))
}
