package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/models"
	"guildcore/services/guilds"
	"guildcore/services/invites"
	"guildcore/services/messages"
	"guildcore/services/presence"
)

// RequestsHandler routes gateway requests to the state services. The acting
// user is always the session's authenticated user.
type RequestsHandler struct {
	guildsService   *guilds.GuildsService
	messagesService *messages.MessagesService
	invitesService  *invites.InvitesService
	presenceService *presence.PresenceService
}

func NewRequestsHandler(
	guildsService *guilds.GuildsService,
	messagesService *messages.MessagesService,
	invitesService *invites.InvitesService,
	presenceService *presence.PresenceService,
) *RequestsHandler {
	return &RequestsHandler{
		guildsService:   guildsService,
		messagesService: messagesService,
		invitesService:  invitesService,
		presenceService: presenceService,
	}
}

func (h *RequestsHandler) HandleRequest(session *clients.Session, msg any) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("❌ Failed to marshal request from session %s: %v", session.ID, err)
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var parsed models.BaseRequest
	if err := json.Unmarshal(msgBytes, &parsed); err != nil {
		log.Printf("❌ Failed to parse request from session %s: %v", session.ID, err)
		return fmt.Errorf("failed to parse request: %w", err)
	}

	log.Printf("📋 Processing %s request from session %s (user %s)", parsed.Type, session.ID, session.UserID)

	ctx := context.Background()
	userID := session.UserID

	switch parsed.Type {
	case models.RequestTypeCreateGuild:
		var payload models.CreateGuildPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		_, err := h.guildsService.CreateGuild(ctx, userID, payload.Name, payload.Region)
		return err

	case models.RequestTypeEditGuild:
		var payload models.EditGuildPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		_, err = h.guildsService.EditGuild(ctx, guildID, payload.Patch)
		return err

	case models.RequestTypeDeleteGuild:
		var payload models.DeleteGuildPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		return h.guildsService.DeleteGuild(ctx, guildID)

	case models.RequestTypeLeaveGuild:
		var payload models.LeaveGuildPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		return h.guildsService.RemoveMember(ctx, guildID, userID)

	case models.RequestTypeKickMember:
		var payload models.KickMemberPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, targetID, err := parseIDPair(payload.GuildID, payload.UserID)
		if err != nil {
			return err
		}
		return h.guildsService.KickMember(ctx, guildID, targetID)

	case models.RequestTypeEditMember:
		var payload models.EditMemberPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, targetID, err := parseIDPair(payload.GuildID, payload.UserID)
		if err != nil {
			return err
		}
		_, err = h.guildsService.EditMember(ctx, guildID, targetID, payload.Patch)
		return err

	case models.RequestTypeBanUser:
		var payload models.BanUserPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, targetID, err := parseIDPair(payload.GuildID, payload.UserID)
		if err != nil {
			return err
		}
		return h.guildsService.BanUser(ctx, guildID, targetID, payload.DeleteMessageDays)

	case models.RequestTypeUnbanUser:
		var payload models.UnbanUserPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, targetID, err := parseIDPair(payload.GuildID, payload.UserID)
		if err != nil {
			return err
		}
		return h.guildsService.UnbanUser(ctx, guildID, targetID)

	case models.RequestTypeCreateChannel:
		var payload models.CreateChannelPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		var parentID *snowflake.ID
		if payload.ParentID != nil {
			pid, err := parseID("parent_id", *payload.ParentID)
			if err != nil {
				return err
			}
			parentID = &pid
		}
		_, err = h.guildsService.CreateChannel(ctx, guildID, payload.Name, models.ChannelType(payload.Type), parentID)
		return err

	case models.RequestTypeEditChannel:
		var payload models.EditChannelPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		_, err = h.guildsService.EditChannel(ctx, channelID, payload.Patch)
		return err

	case models.RequestTypeDeleteChannel:
		var payload models.DeleteChannelPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		return h.guildsService.DeleteChannel(ctx, channelID)

	case models.RequestTypePinMessage, models.RequestTypeUnpinMessage:
		var payload models.PinMessagePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		messageID, err := parseID("message_id", payload.MessageID)
		if err != nil {
			return err
		}
		if parsed.Type == models.RequestTypePinMessage {
			return h.guildsService.PinMessage(ctx, channelID, messageID)
		}
		return h.guildsService.UnpinMessage(ctx, channelID, messageID)

	case models.RequestTypeCreateRole:
		var payload models.CreateRolePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		_, err = h.guildsService.CreateRole(ctx, guildID, payload.Name, payload.Permissions)
		return err

	case models.RequestTypeDeleteRole:
		var payload models.DeleteRolePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		guildID, roleID, err := parseIDPair(payload.GuildID, payload.RoleID)
		if err != nil {
			return err
		}
		return h.guildsService.DeleteRole(ctx, guildID, roleID)

	case models.RequestTypeCreateMessage:
		var payload models.CreateMessagePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		_, err = h.messagesService.CreateMessage(ctx, channelID, userID, payload.Content)
		return err

	case models.RequestTypeEditMessage:
		var payload models.EditMessagePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		messageID, err := parseID("message_id", payload.MessageID)
		if err != nil {
			return err
		}
		_, err = h.messagesService.EditMessage(ctx, messageID, payload.Patch)
		return err

	case models.RequestTypeDeleteMessage:
		var payload models.DeleteMessagePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		messageID, err := parseID("message_id", payload.MessageID)
		if err != nil {
			return err
		}
		return h.messagesService.DeleteMessage(ctx, messageID)

	case models.RequestTypeCreateInvite:
		var payload models.CreateInvitePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		_, err = h.invitesService.CreateInvite(ctx, channelID, userID, payload.Params)
		return err

	case models.RequestTypeUseInvite:
		var payload models.UseInvitePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		used, err := h.invitesService.UseInvite(ctx, payload.Code, userID)
		if err != nil {
			return err
		}
		if used.IsAbsent() {
			log.Printf("⚠️ Invite %s could not be used by %s", payload.Code, userID)
		}
		return nil

	case models.RequestTypeDeleteInvite:
		var payload models.DeleteInvitePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		return h.invitesService.DeleteInvite(ctx, payload.Code)

	case models.RequestTypeStatusUpdate:
		var payload models.StatusUpdatePayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		status := models.PresenceStatus{
			Status:       payload.Status,
			ActivityName: payload.ActivityName,
			ActivityURL:  payload.ActivityURL,
			ActivityType: payload.ActivityType,
		}
		if payload.GuildID == "" {
			return h.presenceService.GlobalUpdate(ctx, userID, status)
		}
		guildID, err := parseID("guild_id", payload.GuildID)
		if err != nil {
			return err
		}
		return h.presenceService.StatusUpdate(ctx, guildID, userID, status)

	case models.RequestTypeTypingStart:
		var payload models.TypingStartPayload
		if err := unmarshalPayload(parsed.Payload, &payload); err != nil {
			return err
		}
		channelID, err := parseID("channel_id", payload.ChannelID)
		if err != nil {
			return err
		}
		return h.presenceService.TypingStart(ctx, channelID, userID)

	default:
		log.Printf("⚠️ Unknown request type '%s' from session %s", parsed.Type, session.ID)
		return fmt.Errorf("unknown request type: %s", parsed.Type)
	}
}

func unmarshalPayload(payload any, target any) error {
	if payload == nil {
		return nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}

func parseID(field, value string) (snowflake.ID, error) {
	id, ok := core.ParseID(value)
	if !ok {
		return 0, fmt.Errorf("%s %q is not a valid snowflake", field, value)
	}
	return id, nil
}

func parseIDPair(guildID, otherID string) (snowflake.ID, snowflake.ID, error) {
	g, err := parseID("guild_id", guildID)
	if err != nil {
		return 0, 0, err
	}
	o, ok := core.ParseID(otherID)
	if !ok {
		return 0, 0, fmt.Errorf("id %q is not a valid snowflake", otherID)
	}
	return g, o, nil
}
