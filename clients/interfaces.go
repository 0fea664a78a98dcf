package clients

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/zishang520/socket.io/v2/socket"
)

// ScopeKind selects how a dispatch target is resolved.
type ScopeKind string

const (
	ScopeKindGuild   ScopeKind = "guild"
	ScopeKindChannel ScopeKind = "channel"
	ScopeKindUser    ScopeKind = "user"
)

// Scope is a dispatch target: a single user, or every watcher of a guild or
// of a channel's guild.
type Scope struct {
	Kind ScopeKind
	ID   snowflake.ID
}

func GuildScope(id snowflake.ID) Scope   { return Scope{Kind: ScopeKindGuild, ID: id} }
func ChannelScope(id snowflake.ID) Scope { return Scope{Kind: ScopeKindChannel, ID: id} }
func UserScope(id snowflake.ID) Scope    { return Scope{Kind: ScopeKindUser, ID: id} }

func (s Scope) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

// Dispatcher pushes a named event to every live session in scope. Dispatch
// is synchronous: when it returns, the event has been handed to the
// transport for all resolved targets.
type Dispatcher interface {
	Dispatch(ctx context.Context, scope Scope, event string, payload any) error
}

// Session is one authenticated gateway connection. A user can hold multiple
// sessions at once; each receives every event dispatched to the user.
type Session struct {
	ID     string
	UserID snowflake.ID
	Socket *socket.Socket
}
