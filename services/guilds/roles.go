package guilds

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/models"
)

// CreateRole adds a role to a guild, positioned after the existing ones.
func (s *GuildsService) CreateRole(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
	permissions int64,
) (*models.Role, error) {
	log.Printf("📋 Starting to create role %q in guild %s", name, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}

	role := &models.Role{
		ID:          s.idgen.NextID(),
		GuildID:     guildID,
		Name:        name,
		Permissions: permissions,
		Position:    len(guild.RoleIDs),
	}
	if err := s.rolesRepo.InsertRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to insert role: %w", err)
	}
	s.store.PutRole(role)

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.RoleIDs.Add(role.ID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return nil, err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"guild_id": guildID.String(),
		"role":     role,
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildRoleCreate, payload); err != nil {
		return nil, fmt.Errorf("failed to dispatch role create: %w", err)
	}

	log.Printf("📋 Completed successfully - created role %s", role.ID)
	return role, nil
}

// DeleteRole removes a role and every reference to it: permission overwrites
// on the guild's channels and the guild's role list, persisted before the
// cache eviction scrubs them in memory. The default role cannot be deleted.
func (s *GuildsService) DeleteRole(ctx context.Context, guildID, roleID snowflake.ID) error {
	log.Printf("📋 Starting to delete role %s in guild %s", roleID, guildID)

	role, ok := s.store.GetRole(roleID).Get()
	if !ok || role.GuildID != guildID {
		return fmt.Errorf("role %s in guild %s: %w", roleID, guildID, core.ErrNotFound)
	}
	if roleID == guildID {
		return fmt.Errorf("cannot delete the default role of guild %s", guildID)
	}
	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}

	for _, channel := range s.store.GuildChannels(guildID) {
		if !channel.Overwrites.Contains(roleID) {
			continue
		}
		s.store.MutateChannel(channel.ID, func(c *models.Channel) { c.Overwrites.Remove(roleID) })
		if err := s.persistChannel(ctx, channel); err != nil {
			return err
		}
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.RoleIDs.Remove(roleID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}

	affected, err := s.rolesRepo.DeleteRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("role %s: %w", roleID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("role delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	if _, err := s.reloader.ReloadRole(ctx, roleID); err != nil {
		return err
	}

	payload := map[string]any{
		"role_id":  roleID.String(),
		"guild_id": guildID.String(),
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventRoleDelete, payload); err != nil {
		return fmt.Errorf("failed to dispatch role delete: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted role %s", roleID)
	return nil
}
