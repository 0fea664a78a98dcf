package models

// Gateway request envelope and payloads. Clients send these over the
// Socket.IO connection; IDs travel as decimal strings.

type BaseRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	RequestTypeCreateGuild = "create_guild"
	RequestTypeEditGuild   = "edit_guild"
	RequestTypeDeleteGuild = "delete_guild"

	RequestTypeLeaveGuild = "leave_guild"
	RequestTypeKickMember = "kick_member"
	RequestTypeEditMember = "edit_member"
	RequestTypeBanUser    = "ban_user"
	RequestTypeUnbanUser  = "unban_user"

	RequestTypeCreateChannel = "create_channel"
	RequestTypeEditChannel   = "edit_channel"
	RequestTypeDeleteChannel = "delete_channel"
	RequestTypePinMessage    = "pin_message"
	RequestTypeUnpinMessage  = "unpin_message"

	RequestTypeCreateRole = "create_role"
	RequestTypeDeleteRole = "delete_role"

	RequestTypeCreateMessage = "create_message"
	RequestTypeEditMessage   = "edit_message"
	RequestTypeDeleteMessage = "delete_message"

	RequestTypeCreateInvite = "create_invite"
	RequestTypeUseInvite    = "use_invite"
	RequestTypeDeleteInvite = "delete_invite"

	RequestTypeStatusUpdate = "status_update"
	RequestTypeTypingStart  = "typing_start"
)

type CreateGuildPayload struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

type EditGuildPayload struct {
	GuildID string     `json:"guild_id"`
	Patch   GuildPatch `json:"patch"`
}

type DeleteGuildPayload struct {
	GuildID string `json:"guild_id"`
}

type LeaveGuildPayload struct {
	GuildID string `json:"guild_id"`
}

type KickMemberPayload struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
}

type EditMemberPayload struct {
	GuildID string      `json:"guild_id"`
	UserID  string      `json:"user_id"`
	Patch   MemberPatch `json:"patch"`
}

type BanUserPayload struct {
	GuildID           string `json:"guild_id"`
	UserID            string `json:"user_id"`
	DeleteMessageDays int    `json:"delete_message_days"`
}

type UnbanUserPayload struct {
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
}

type CreateChannelPayload struct {
	GuildID  string  `json:"guild_id"`
	Name     string  `json:"name"`
	Type     int     `json:"type"`
	ParentID *string `json:"parent_id"`
}

type EditChannelPayload struct {
	ChannelID string       `json:"channel_id"`
	Patch     ChannelPatch `json:"patch"`
}

type DeleteChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type PinMessagePayload struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

type CreateRolePayload struct {
	GuildID     string `json:"guild_id"`
	Name        string `json:"name"`
	Permissions int64  `json:"permissions"`
}

type DeleteRolePayload struct {
	GuildID string `json:"guild_id"`
	RoleID  string `json:"role_id"`
}

type CreateMessagePayload struct {
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

type EditMessagePayload struct {
	MessageID string       `json:"message_id"`
	Patch     MessagePatch `json:"patch"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

type CreateInvitePayload struct {
	ChannelID string       `json:"channel_id"`
	Params    InviteParams `json:"params"`
}

type UseInvitePayload struct {
	Code string `json:"code"`
}

type DeleteInvitePayload struct {
	Code string `json:"code"`
}

type StatusUpdatePayload struct {
	// GuildID empty means a global update fanned out to all guilds.
	GuildID      string  `json:"guild_id"`
	Status       string  `json:"status"`
	ActivityName *string `json:"activity_name"`
	ActivityURL  *string `json:"activity_url"`
	ActivityType int     `json:"activity_type"`
}

type TypingStartPayload struct {
	ChannelID string `json:"channel_id"`
}
