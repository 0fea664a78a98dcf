package models

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/lib/pq"
)

// Guild is a community container owning channels, roles and members.
//
// The persisted columns are the authoritative document; channel_ids and
// role_ids always contain at least the default channel/role created with the
// guild (both share the guild's own ID). The watcher set only lives in
// memory: it tracks which users are eligible to receive this guild's events.
type Guild struct {
	ID         snowflake.ID   `json:"id"          db:"id"`
	Name       string         `json:"name"        db:"name"`
	OwnerID    snowflake.ID   `json:"owner_id"    db:"owner_id"`
	Icon       *string        `json:"icon"        db:"icon"`
	Region     string         `json:"region"      db:"region"`
	Features   pq.StringArray `json:"features"    db:"features"`
	ChannelIDs IDList         `json:"channel_ids" db:"channel_ids"`
	RoleIDs    IDList         `json:"role_ids"    db:"role_ids"`
	MemberIDs  IDList         `json:"member_ids"  db:"member_ids"`
	BannedIDs  IDList         `json:"banned_ids"  db:"banned_ids"`

	// Watchers is not persisted; it is rebuilt from live sessions. Mutation
	// goes through the EntityStore, which holds the lock dispatch reads
	// under.
	Watchers IDList `json:"-" db:"-"`
}

// ApplyUpdate merges freshly fetched persisted fields into the receiver
// without replacing it, so every holder of the pointer observes the update.
// In-memory state (watchers) is preserved.
func (g *Guild) ApplyUpdate(fresh *Guild) {
	g.Name = fresh.Name
	g.OwnerID = fresh.OwnerID
	g.Icon = fresh.Icon
	g.Region = fresh.Region
	g.Features = fresh.Features
	g.ChannelIDs = fresh.ChannelIDs
	g.RoleIDs = fresh.RoleIDs
	g.MemberIDs = fresh.MemberIDs
	g.BannedIDs = fresh.BannedIDs
}

// GuildPatch carries the optional fields of an edit-guild operation.
type GuildPatch struct {
	Name    *string       `json:"name"`
	Icon    *string       `json:"icon"`
	Region  *string       `json:"region"`
	OwnerID *snowflake.ID `json:"owner_id"`
}

func (p GuildPatch) Apply(g *Guild) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Icon != nil {
		g.Icon = p.Icon
	}
	if p.Region != nil {
		g.Region = *p.Region
	}
	if p.OwnerID != nil {
		g.OwnerID = *p.OwnerID
	}
}

// Snapshot is the GUILD_CREATE shaped payload: the guild document plus its
// live members and channels.
type GuildSnapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Icon        *string    `json:"icon"`
	OwnerID     string     `json:"owner_id"`
	Region      string     `json:"region"`
	Features    []string   `json:"features"`
	MemberCount int        `json:"member_count"`
	Unavailable bool       `json:"unavailable"`
	Members     []*Member  `json:"members"`
	Channels    []*Channel `json:"channels"`
	Roles       []*Role    `json:"roles"`
}

// DefaultSettings is the USER_GUILD_SETTINGS_UPDATE payload sent to a user
// entering a guild.
func (g *Guild) DefaultSettings() map[string]any {
	return map[string]any{
		"guild_id":              g.ID.String(),
		"suppress_everyone":     false,
		"muted":                 false,
		"mobile_push":           false,
		"message_notifications": 1,
		"channel_overrides":     []any{},
	}
}
