package testutils

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/core"
)

var (
	genOnce sync.Once
	gen     *core.SnowflakeGenerator
)

// Generator returns the shared test snowflake generator.
func Generator() *core.SnowflakeGenerator {
	genOnce.Do(func() {
		gen = core.NewSnowflakeGenerator(1023)
	})
	return gen
}

// GenerateID returns a unique snowflake for test entities.
func GenerateID() snowflake.ID {
	return Generator().NextID()
}

// FixedClock is a core.Clock pinned to a settable instant.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.T
}

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
