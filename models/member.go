package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Member is a (guild, user) pair. A raw member row exists for every ID in
// its guild's member_ids column; the bulk loader backfills rows that are
// missing.
type Member struct {
	GuildID  snowflake.ID `json:"guild_id"  db:"guild_id"`
	UserID   snowflake.ID `json:"user_id"   db:"user_id"`
	Nick     *string      `json:"nick"      db:"nick"`
	JoinedAt time.Time    `json:"joined_at" db:"joined_at"`
	Deaf     bool         `json:"deaf"      db:"deaf"`
	Mute     bool         `json:"mute"      db:"mute"`
}

// MemberPatch carries the editable member fields.
type MemberPatch struct {
	Nick *string `json:"nick"`
	Deaf *bool   `json:"deaf"`
	Mute *bool   `json:"mute"`
}

func (p MemberPatch) Apply(m *Member) {
	if p.Nick != nil {
		m.Nick = p.Nick
	}
	if p.Deaf != nil {
		m.Deaf = *p.Deaf
	}
	if p.Mute != nil {
		m.Mute = *p.Mute
	}
}
