package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// UnlimitedUses marks an invite that never exhausts.
const UnlimitedUses = -1

// Invite is a redeemable code granting membership to a guild via a specific
// channel. Validity is evaluated lazily on every access, never cached as a
// boolean: valid = not expired AND uses != 0.
type Invite struct {
	Code      string       `json:"code"       db:"code"`
	ChannelID snowflake.ID `json:"channel_id" db:"channel_id"`
	InviterID snowflake.ID `json:"inviter_id" db:"inviter_id"`
	ExpiresAt *time.Time   `json:"expires_at" db:"expires_at"`
	Uses      int          `json:"uses"       db:"uses"`
	Temporary bool         `json:"temporary"  db:"temporary"`
	Unique    bool         `json:"unique"     db:"unique"`
}

func (i *Invite) ApplyUpdate(fresh *Invite) {
	i.ChannelID = fresh.ChannelID
	i.InviterID = fresh.InviterID
	i.ExpiresAt = fresh.ExpiresAt
	i.Uses = fresh.Uses
	i.Temporary = fresh.Temporary
	i.Unique = fresh.Unique
}

func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// Valid reports whether the invite can still be redeemed.
func (i *Invite) Valid(now time.Time) bool {
	return !i.Expired(now) && i.Uses != 0
}

// Consume decrements the remaining use count. Reaching 0 invalidates the
// invite for future use but does not delete it. Returns false when the
// invite is already exhausted or expired.
func (i *Invite) Consume(now time.Time) bool {
	if !i.Valid(now) {
		return false
	}
	if i.Uses > 0 {
		i.Uses--
	}
	return true
}

// InviteParams is a create-invite payload. MaxAge 0 means no expiry;
// MaxUses 0 is normalized to unlimited.
type InviteParams struct {
	MaxAge    int  `json:"max_age"`
	MaxUses   int  `json:"max_uses"`
	Temporary bool `json:"temporary"`
	Unique    bool `json:"unique"`
}
