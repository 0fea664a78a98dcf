package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Message is append-only except for edits (content replace) and deletes
// (row removal + cache eviction). AuthorID is nullable: it outlives the
// author's membership.
type Message struct {
	ID        snowflake.ID  `json:"id"         db:"id"`
	ChannelID snowflake.ID  `json:"channel_id" db:"channel_id"`
	AuthorID  *snowflake.ID `json:"author_id"  db:"author_id"`
	Content   string        `json:"content"    db:"content"`
	Timestamp time.Time     `json:"timestamp"  db:"timestamp"`
	Edited    bool          `json:"edited"     db:"edited"`
}

func (m *Message) ApplyUpdate(fresh *Message) {
	m.ChannelID = fresh.ChannelID
	m.AuthorID = fresh.AuthorID
	m.Content = fresh.Content
	m.Timestamp = fresh.Timestamp
	m.Edited = fresh.Edited
}

// MessagePatch is an edit payload; only content can change.
type MessagePatch struct {
	Content *string `json:"content"`
}
