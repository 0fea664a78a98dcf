package core

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/oklog/ulid/v2"

	"guildcore/utils"
)

// snowflake layout: 41 bits millisecond timestamp since the epoch,
// 10 bits worker, 12 bits sequence.
const (
	timestampShift = 22
	workerShift    = 12
	sequenceMask   = 0xFFF
)

// SnowflakeGenerator issues unique, coarsely time-ordered 64-bit IDs.
// IDs generated within the same millisecond are ordered by sequence number,
// so per-process allocation order is always recoverable by sorting on ID.
type SnowflakeGenerator struct {
	mu         sync.Mutex
	workerID   uint64
	lastMillis uint64
	sequence   uint64
}

func NewSnowflakeGenerator(workerID uint64) *SnowflakeGenerator {
	utils.AssertInvariant(workerID < 1024, "worker ID must fit in 10 bits")
	return &SnowflakeGenerator{workerID: workerID}
}

func (g *SnowflakeGenerator) NextID() snowflake.ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	millis := uint64(time.Now().UnixMilli()) - snowflake.Epoch
	if millis == g.lastMillis {
		g.sequence = (g.sequence + 1) & sequenceMask
		if g.sequence == 0 {
			// sequence exhausted for this millisecond, spin to the next one
			for millis <= g.lastMillis {
				millis = uint64(time.Now().UnixMilli()) - snowflake.Epoch
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastMillis = millis

	return snowflake.ID(millis<<timestampShift | g.workerID<<workerShift | g.sequence)
}

// ParseID parses a snowflake from its string form. Malformed or non-numeric
// input yields ok=false, never an error: cache lookups treat bad IDs as
// plain not-found.
func ParseID(s string) (snowflake.ID, bool) {
	id, err := snowflake.Parse(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IDAt returns the smallest snowflake for the given wall-clock time. Useful
// as a lower bound when querying messages by age.
func IDAt(t time.Time) snowflake.ID {
	return snowflake.New(t)
}

// NewSessionID generates a prefixed ULID for gateway sessions.
// Example: NewSessionID("sess") returns "sess_01G0EZ1XTM37C5X11SQTDNCTM1"
func NewSessionID(prefix string) string {
	utils.AssertInvariant(strings.TrimSpace(prefix) != "", "prefix cannot be empty")

	entropy := ulid.Monotonic(rand.Reader, 0)
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)

	return strings.ToLower(strings.TrimSpace(prefix)) + "_" + id.String()
}
