package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflakeGenerator(t *testing.T) {
	t.Run("ids_are_unique_and_ordered", func(t *testing.T) {
		gen := NewSnowflakeGenerator(0)

		prev := gen.NextID()
		for i := 0; i < 10000; i++ {
			next := gen.NextID()
			require.Greater(t, uint64(next), uint64(prev), "IDs must be strictly increasing")
			prev = next
		}
	})

	t.Run("worker_id_is_embedded", func(t *testing.T) {
		gen := NewSnowflakeGenerator(42)
		id := gen.NextID()
		assert.Equal(t, uint64(42), (uint64(id)>>workerShift)&0x3FF)
	})

	t.Run("worker_id_out_of_range_panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewSnowflakeGenerator(1024)
		})
	})
}

func TestParseID(t *testing.T) {
	t.Run("valid_id_round_trips", func(t *testing.T) {
		gen := NewSnowflakeGenerator(3)
		id := gen.NextID()

		parsed, ok := ParseID(id.String())
		require.True(t, ok)
		assert.Equal(t, id, parsed)
	})

	t.Run("malformed_id_is_not_found_not_error", func(t *testing.T) {
		for _, input := range []string{"", "abc", "12x4", "-5", "99999999999999999999999999"} {
			_, ok := ParseID(input)
			assert.False(t, ok, "input %q should not parse", input)
		}
	})
}

func TestIDAt(t *testing.T) {
	t.Run("bounds_generated_ids", func(t *testing.T) {
		before := IDAt(time.Now().Add(-time.Second))
		gen := NewSnowflakeGenerator(0)
		id := gen.NextID()
		after := IDAt(time.Now().Add(time.Second))

		assert.Less(t, uint64(before), uint64(id))
		assert.Greater(t, uint64(after), uint64(id))
	})
}

func TestNewSessionID(t *testing.T) {
	t.Run("carries_prefix", func(t *testing.T) {
		id := NewSessionID("sess")
		assert.Regexp(t, `^sess_[0-9A-Z]{26}$`, id)
	})

	t.Run("unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			id := NewSessionID("sess")
			require.False(t, seen[id])
			seen[id] = true
		}
	})
}
