package models

import (
	"github.com/disgoorg/snowflake/v2"
)

// DefaultRolePermissions is the permission bitmask given to the default role
// created with every guild.
const DefaultRolePermissions int64 = 104188929

type Role struct {
	ID          snowflake.ID `json:"id"          db:"id"`
	GuildID     snowflake.ID `json:"guild_id"    db:"guild_id"`
	Name        string       `json:"name"        db:"name"`
	Permissions int64        `json:"permissions" db:"permissions"`
	Position    int          `json:"position"    db:"position"`
}

func (r *Role) ApplyUpdate(fresh *Role) {
	r.GuildID = fresh.GuildID
	r.Name = fresh.Name
	r.Permissions = fresh.Permissions
	r.Position = fresh.Position
}
