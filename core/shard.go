package core

import (
	"github.com/disgoorg/snowflake/v2"
)

// guildsPerShard is how many guilds one session-layer shard is expected to
// carry before a client should open another connection.
const guildsPerShard = 1200

// RecommendedShardCount returns the shard count a client with the given
// number of guilds should connect with. Always at least 1.
func RecommendedShardCount(guildCount int) int {
	if guildCount <= 0 {
		return 1
	}
	count := (guildCount + guildsPerShard - 1) / guildsPerShard
	if count < 1 {
		return 1
	}
	return count
}

// ShardFor maps a guild to a shard index. Guild IDs are sharded raw, without
// reserving low bits for flags, so the mapping is a plain modulus.
func ShardFor(guildID snowflake.ID, shardCount int) int {
	if shardCount <= 0 {
		return 0
	}
	return int(uint64(guildID) % uint64(shardCount))
}
