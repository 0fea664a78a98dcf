package models

import (
	"github.com/disgoorg/snowflake/v2"
)

// ChannelType fixes a channel's concrete shape at creation time.
type ChannelType int

const (
	ChannelTypeText     ChannelType = 0
	ChannelTypeVoice    ChannelType = 2
	ChannelTypeCategory ChannelType = 4
)

func (t ChannelType) IsGuildType() bool {
	return t == ChannelTypeText || t == ChannelTypeVoice || t == ChannelTypeCategory
}

// Channel is owned by exactly one guild; the guild's channel_ids column is
// the authoritative membership list and this row is a denormalized mirror.
// ParentID is a weak reference to a category channel, lookup only.
type Channel struct {
	ID       snowflake.ID  `json:"id"        db:"id"`
	GuildID  *snowflake.ID `json:"guild_id"  db:"guild_id"`
	ParentID *snowflake.ID `json:"parent_id" db:"parent_id"`
	Name     string        `json:"name"      db:"name"`
	Type     ChannelType   `json:"type"      db:"type"`
	Position int           `json:"position"  db:"position"`

	// text channel fields
	Topic     string `json:"topic"      db:"topic"`
	PinnedIDs IDList `json:"pinned_ids" db:"pinned_ids"`
	NSFW      bool   `json:"nsfw"       db:"nsfw"`

	// voice channel fields
	Bitrate   int `json:"bitrate"    db:"bitrate"`
	UserLimit int `json:"user_limit" db:"user_limit"`

	// Overwrites lists role IDs with permission overwrites on this channel.
	Overwrites IDList `json:"permission_overwrites" db:"overwrites"`
}

func (c *Channel) ApplyUpdate(fresh *Channel) {
	c.GuildID = fresh.GuildID
	c.ParentID = fresh.ParentID
	c.Name = fresh.Name
	c.Type = fresh.Type
	c.Position = fresh.Position
	c.Topic = fresh.Topic
	c.PinnedIDs = fresh.PinnedIDs
	c.NSFW = fresh.NSFW
	c.Bitrate = fresh.Bitrate
	c.UserLimit = fresh.UserLimit
	c.Overwrites = fresh.Overwrites
}

// ChannelPatch carries the optional fields of an edit-channel operation.
type ChannelPatch struct {
	Name     *string       `json:"name"`
	Topic    *string       `json:"topic"`
	Position *int          `json:"position"`
	ParentID *snowflake.ID `json:"parent_id"`
	NSFW     *bool         `json:"nsfw"`
}

func (p ChannelPatch) Apply(c *Channel) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Topic != nil {
		c.Topic = *p.Topic
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.ParentID != nil {
		c.ParentID = p.ParentID
	}
	if p.NSFW != nil {
		c.NSFW = *p.NSFW
	}
}
