package models

import (
	"github.com/disgoorg/snowflake/v2"
)

const (
	StatusOnline  = "online"
	StatusIdle    = "idle"
	StatusDND     = "dnd"
	StatusOffline = "offline"
)

// PresenceStatus is the status blob attached to a presence: the status enum
// plus activity metadata.
type PresenceStatus struct {
	Status       string  `json:"status"        db:"status"`
	ActivityName *string `json:"name"          db:"activity_name"`
	ActivityURL  *string `json:"url"           db:"activity_url"`
	ActivityType int     `json:"type"          db:"activity_type"`
}

// Normalize maps client-side aliases onto stored statuses: invisible users
// are stored as offline, afk users as idle.
func (s PresenceStatus) Normalize() PresenceStatus {
	switch s.Status {
	case "invisible":
		s.Status = StatusOffline
	case "afk":
		s.Status = StatusIdle
	}
	return s
}

// Equal is a field-keyed comparison. The diff is per field, not over the set
// of raw values, so two fields swapping each other's old values still counts
// as a change.
func (s PresenceStatus) Equal(o PresenceStatus) bool {
	return s.Status == o.Status &&
		equalStringPtr(s.ActivityName, o.ActivityName) &&
		equalStringPtr(s.ActivityURL, o.ActivityURL) &&
		s.ActivityType == o.ActivityType
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// OfflineStatus is the default status blob for users without any recorded
// presence.
func OfflineStatus() PresenceStatus {
	return PresenceStatus{Status: StatusOffline}
}

// Presence is a user's live status scoped to one guild. Exactly one exists
// per (guild, user) pair that has ever received a status update. A presence
// with GuildID 0 is a user's global presence, used to bootstrap the first
// per-guild presence.
type Presence struct {
	GuildID snowflake.ID `json:"guild_id" db:"guild_id"`
	UserID  snowflake.ID `json:"user_id"  db:"user_id"`
	PresenceStatus
}

// EventPayload shapes the PRESENCE_UPDATE event body.
func (p *Presence) EventPayload() map[string]any {
	return map[string]any{
		"guild_id": p.GuildID.String(),
		"user":     map[string]any{"id": p.UserID.String()},
		"status":   p.Status,
		"game": map[string]any{
			"name": p.ActivityName,
			"url":  p.ActivityURL,
			"type": p.ActivityType,
		},
	}
}
