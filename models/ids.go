package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lib/pq"
)

// IDList is a list of snowflake IDs stored as a Postgres bigint array.
type IDList []snowflake.ID

func (l IDList) Value() (driver.Value, error) {
	arr := make(pq.Int64Array, len(l))
	for i, id := range l {
		arr[i] = int64(id)
	}
	return arr.Value()
}

func (l *IDList) Scan(src any) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("failed to scan ID list: %w", err)
	}

	ids := make(IDList, len(arr))
	for i, v := range arr {
		ids[i] = snowflake.ID(v)
	}
	*l = ids
	return nil
}

func (l IDList) Contains(id snowflake.ID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends the ID if it is not already present.
func (l *IDList) Add(id snowflake.ID) {
	if !l.Contains(id) {
		*l = append(*l, id)
	}
}

// Remove deletes the first occurrence of the ID, reporting whether it was
// present.
func (l *IDList) Remove(id snowflake.ID) bool {
	for i, v := range *l {
		if v == id {
			*l = append((*l)[:i], (*l)[i+1:]...)
			return true
		}
	}
	return false
}

// Strings renders the list the way event payloads carry IDs: as decimal
// strings, so 64-bit values survive JSON number precision limits.
func (l IDList) Strings() []string {
	out := make([]string, len(l))
	for i, id := range l {
		out[i] = id.String()
	}
	return out
}
