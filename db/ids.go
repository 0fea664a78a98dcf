package db

import (
	"github.com/disgoorg/snowflake/v2"
)

// Snowflakes are stored as BIGINT; pass them as int64 so the driver never
// sees a uint64.
func idArg(id snowflake.ID) int64 {
	return int64(id)
}

func idPtrArg(id *snowflake.ID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
