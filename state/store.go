package state

import (
	"sort"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/models"
)

// EntityStore is the in-memory identity map for every cached entity. Each
// entity has exactly one live pointer per ID; lookups and mutations go
// through this store so all holders observe updates in place.
//
// Relationship lookups (channels of a guild, messages of a channel, guilds
// of a user) are served from secondary indexes maintained on every put and
// remove, never by scanning the primary maps.
type EntityStore struct {
	mu sync.RWMutex

	guilds   map[snowflake.ID]*models.Guild
	channels map[snowflake.ID]*models.Channel
	roles    map[snowflake.ID]*models.Role
	messages map[snowflake.ID]*models.Message
	invites  map[string]*models.Invite

	// rawMembers is keyed guild first: guildID -> userID -> member row.
	rawMembers map[snowflake.ID]map[snowflake.ID]*models.Member

	channelsByGuild  map[snowflake.ID]map[snowflake.ID]*models.Channel
	rolesByGuild     map[snowflake.ID]map[snowflake.ID]*models.Role
	messagesByChan   map[snowflake.ID]map[snowflake.ID]*models.Message
	invitesByChannel map[snowflake.ID]map[string]*models.Invite
	guildsByUser     map[snowflake.ID]map[snowflake.ID]struct{}
}

func NewEntityStore() *EntityStore {
	return &EntityStore{
		guilds:           map[snowflake.ID]*models.Guild{},
		channels:         map[snowflake.ID]*models.Channel{},
		roles:            map[snowflake.ID]*models.Role{},
		messages:         map[snowflake.ID]*models.Message{},
		invites:          map[string]*models.Invite{},
		rawMembers:       map[snowflake.ID]map[snowflake.ID]*models.Member{},
		channelsByGuild:  map[snowflake.ID]map[snowflake.ID]*models.Channel{},
		rolesByGuild:     map[snowflake.ID]map[snowflake.ID]*models.Role{},
		messagesByChan:   map[snowflake.ID]map[snowflake.ID]*models.Message{},
		invitesByChannel: map[snowflake.ID]map[string]*models.Invite{},
		guildsByUser:     map[snowflake.ID]map[snowflake.ID]struct{}{},
	}
}

// --- guilds ---

func (s *EntityStore) GetGuild(id snowflake.ID) mo.Option[*models.Guild] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.guilds[id]; ok {
		return mo.Some(g)
	}
	return mo.None[*models.Guild]()
}

func (s *EntityStore) PutGuild(guild *models.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[guild.ID] = guild
	s.reindexGuildUsersLocked(guild)
}

// MergeGuild merges fresh persisted fields into the cached guild and
// refreshes the user index, all under the lock, so holders of the pointer
// never observe a half-applied update. None when no guild is cached.
func (s *EntityStore) MergeGuild(fresh *models.Guild) mo.Option[*models.Guild] {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.guilds[fresh.ID]
	if !ok {
		return mo.None[*models.Guild]()
	}
	existing.ApplyUpdate(fresh)
	s.reindexGuildUsersLocked(existing)
	return mo.Some(existing)
}

// MutateGuild runs fn on the cached guild under the write lock. In-place
// edits to the guild's lists go through here, never through a bare pointer:
// dispatch reads the same lists from gateway goroutines. The user index is
// rebuilt afterwards. Reports whether the guild was cached.
func (s *EntityStore) MutateGuild(id snowflake.ID, fn func(*models.Guild)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild, ok := s.guilds[id]
	if !ok {
		return false
	}
	fn(guild)
	s.reindexGuildUsersLocked(guild)
	return true
}

// MarkWatcher marks a user as a viewer of a guild, making them a dispatch
// target for guild-scoped events. Unknown guilds are ignored.
func (s *EntityStore) MarkWatcher(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guild, ok := s.guilds[guildID]; ok {
		guild.Watchers.Add(userID)
	}
}

func (s *EntityStore) UnmarkWatcher(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if guild, ok := s.guilds[guildID]; ok {
		guild.Watchers.Remove(userID)
	}
}

func (s *EntityStore) reindexGuildUsersLocked(guild *models.Guild) {
	for userID, guildIDs := range s.guildsByUser {
		if _, ok := guildIDs[guild.ID]; ok && !guild.MemberIDs.Contains(userID) {
			delete(guildIDs, guild.ID)
			if len(guildIDs) == 0 {
				delete(s.guildsByUser, userID)
			}
		}
	}
	for _, userID := range guild.MemberIDs {
		if s.guildsByUser[userID] == nil {
			s.guildsByUser[userID] = map[snowflake.ID]struct{}{}
		}
		s.guildsByUser[userID][guild.ID] = struct{}{}
	}
}

// EvictGuild removes a guild and everything scoped under it: channels (with
// their messages), roles, member rows and invites.
func (s *EntityStore) EvictGuild(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for channelID := range s.channelsByGuild[id] {
		s.evictChannelLocked(channelID)
	}
	for roleID := range s.rolesByGuild[id] {
		delete(s.roles, roleID)
	}
	delete(s.rolesByGuild, id)
	delete(s.rawMembers, id)

	for userID, guildIDs := range s.guildsByUser {
		delete(guildIDs, id)
		if len(guildIDs) == 0 {
			delete(s.guildsByUser, userID)
		}
	}

	delete(s.guilds, id)
}

func (s *EntityStore) GuildCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guilds)
}

// Guilds returns every cached guild in ID order.
func (s *EntityStore) Guilds() []*models.Guild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Guild, 0, len(s.guilds))
	for _, g := range s.guilds {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GuildsWithUser returns the guilds whose member list contains the user, in
// ID order.
func (s *EntityStore) GuildsWithUser(userID snowflake.ID) []*models.Guild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Guild, 0, len(s.guildsByUser[userID]))
	for guildID := range s.guildsByUser[userID] {
		if g, ok := s.guilds[guildID]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GuildWatchers returns the user IDs currently subscribed to a guild's
// events.
func (s *EntityStore) GuildWatchers(guildID snowflake.ID) []snowflake.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guild, ok := s.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]snowflake.ID, len(guild.Watchers))
	copy(out, guild.Watchers)
	return out
}

// --- channels ---

func (s *EntityStore) GetChannel(id snowflake.ID) mo.Option[*models.Channel] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.channels[id]; ok {
		return mo.Some(c)
	}
	return mo.None[*models.Channel]()
}

func (s *EntityStore) PutChannel(channel *models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel.ID] = channel
	if channel.GuildID != nil {
		guildID := *channel.GuildID
		if s.channelsByGuild[guildID] == nil {
			s.channelsByGuild[guildID] = map[snowflake.ID]*models.Channel{}
		}
		s.channelsByGuild[guildID][channel.ID] = channel
	}
}

// MergeChannel merges fresh persisted fields into the cached channel under
// the lock. None when no channel is cached.
func (s *EntityStore) MergeChannel(fresh *models.Channel) mo.Option[*models.Channel] {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.channels[fresh.ID]
	if !ok {
		return mo.None[*models.Channel]()
	}
	existing.ApplyUpdate(fresh)
	return mo.Some(existing)
}

// MutateChannel runs fn on the cached channel under the write lock. Reports
// whether the channel was cached.
func (s *EntityStore) MutateChannel(id snowflake.ID, fn func(*models.Channel)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	channel, ok := s.channels[id]
	if !ok {
		return false
	}
	fn(channel)
	return true
}

// EvictChannel removes a channel and its cached messages and invites.
func (s *EntityStore) EvictChannel(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictChannelLocked(id)
}

func (s *EntityStore) evictChannelLocked(id snowflake.ID) {
	channel, ok := s.channels[id]
	if ok && channel.GuildID != nil {
		delete(s.channelsByGuild[*channel.GuildID], id)
		if len(s.channelsByGuild[*channel.GuildID]) == 0 {
			delete(s.channelsByGuild, *channel.GuildID)
		}
	}
	for messageID := range s.messagesByChan[id] {
		delete(s.messages, messageID)
	}
	delete(s.messagesByChan, id)
	for code := range s.invitesByChannel[id] {
		delete(s.invites, code)
	}
	delete(s.invitesByChannel, id)
	delete(s.channels, id)
}

// ChannelGuildID resolves the guild owning a channel.
func (s *EntityStore) ChannelGuildID(channelID snowflake.ID) mo.Option[snowflake.ID] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.channels[channelID]; ok && c.GuildID != nil {
		return mo.Some(*c.GuildID)
	}
	return mo.None[snowflake.ID]()
}

// GuildChannels returns a guild's cached channels sorted by position, then
// ID.
func (s *EntityStore) GuildChannels(guildID snowflake.ID) []*models.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Channel, 0, len(s.channelsByGuild[guildID]))
	for _, c := range s.channelsByGuild[guildID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- roles ---

func (s *EntityStore) GetRole(id snowflake.ID) mo.Option[*models.Role] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.roles[id]; ok {
		return mo.Some(r)
	}
	return mo.None[*models.Role]()
}

func (s *EntityStore) PutRole(role *models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[role.ID] = role
	if s.rolesByGuild[role.GuildID] == nil {
		s.rolesByGuild[role.GuildID] = map[snowflake.ID]*models.Role{}
	}
	s.rolesByGuild[role.GuildID][role.ID] = role
}

// MergeRole merges fresh persisted fields into the cached role under the
// lock. None when no role is cached.
func (s *EntityStore) MergeRole(fresh *models.Role) mo.Option[*models.Role] {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[fresh.ID]
	if !ok {
		return mo.None[*models.Role]()
	}
	existing.ApplyUpdate(fresh)
	return mo.Some(existing)
}

// EvictRole removes a role and scrubs every reference to it: permission
// overwrites on the guild's channels and the guild's role list. Only the
// cache is touched; persisting the scrub is the caller's job.
func (s *EntityStore) EvictRole(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[id]
	if !ok {
		return
	}

	if guild, ok := s.guilds[role.GuildID]; ok {
		guild.RoleIDs.Remove(id)
	}
	for _, channel := range s.channelsByGuild[role.GuildID] {
		channel.Overwrites.Remove(id)
	}

	delete(s.rolesByGuild[role.GuildID], id)
	if len(s.rolesByGuild[role.GuildID]) == 0 {
		delete(s.rolesByGuild, role.GuildID)
	}
	delete(s.roles, id)
}

func (s *EntityStore) GuildRoles(guildID snowflake.ID) []*models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Role, 0, len(s.rolesByGuild[guildID]))
	for _, r := range s.rolesByGuild[guildID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// --- members ---

func (s *EntityStore) GetRawMember(guildID, userID snowflake.ID) mo.Option[*models.Member] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.rawMembers[guildID][userID]; ok {
		return mo.Some(m)
	}
	return mo.None[*models.Member]()
}

func (s *EntityStore) PutRawMember(member *models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rawMembers[member.GuildID] == nil {
		s.rawMembers[member.GuildID] = map[snowflake.ID]*models.Member{}
	}
	s.rawMembers[member.GuildID][member.UserID] = member
}

func (s *EntityStore) RemoveRawMember(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rawMembers[guildID], userID)
	if len(s.rawMembers[guildID]) == 0 {
		delete(s.rawMembers, guildID)
	}
}

func (s *EntityStore) GuildMembers(guildID snowflake.ID) []*models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.rawMembers[guildID]))
	for _, m := range s.rawMembers[guildID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// --- messages ---

func (s *EntityStore) GetMessage(id snowflake.ID) mo.Option[*models.Message] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.messages[id]; ok {
		return mo.Some(m)
	}
	return mo.None[*models.Message]()
}

func (s *EntityStore) PutMessage(message *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[message.ID] = message
	if s.messagesByChan[message.ChannelID] == nil {
		s.messagesByChan[message.ChannelID] = map[snowflake.ID]*models.Message{}
	}
	s.messagesByChan[message.ChannelID][message.ID] = message
}

// MergeMessage merges fresh persisted fields into the cached message under
// the lock. None when no message is cached.
func (s *EntityStore) MergeMessage(fresh *models.Message) mo.Option[*models.Message] {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.messages[fresh.ID]
	if !ok {
		return mo.None[*models.Message]()
	}
	existing.ApplyUpdate(fresh)
	return mo.Some(existing)
}

func (s *EntityStore) RemoveMessage(id snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[id]; ok {
		delete(s.messagesByChan[m.ChannelID], id)
		if len(s.messagesByChan[m.ChannelID]) == 0 {
			delete(s.messagesByChan, m.ChannelID)
		}
	}
	delete(s.messages, id)
}

// ChannelMessages returns a channel's cached messages in ID (chronological)
// order.
func (s *EntityStore) ChannelMessages(channelID snowflake.ID) []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, 0, len(s.messagesByChan[channelID]))
	for _, m := range s.messagesByChan[channelID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- invites ---

func (s *EntityStore) GetInvite(code string) mo.Option[*models.Invite] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.invites[code]; ok {
		return mo.Some(i)
	}
	return mo.None[*models.Invite]()
}

func (s *EntityStore) PutInvite(invite *models.Invite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[invite.Code] = invite
	if s.invitesByChannel[invite.ChannelID] == nil {
		s.invitesByChannel[invite.ChannelID] = map[string]*models.Invite{}
	}
	s.invitesByChannel[invite.ChannelID][invite.Code] = invite
}

// MergeInvite merges fresh persisted fields into the cached invite under the
// lock. None when no invite is cached.
func (s *EntityStore) MergeInvite(fresh *models.Invite) mo.Option[*models.Invite] {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.invites[fresh.Code]
	if !ok {
		return mo.None[*models.Invite]()
	}
	existing.ApplyUpdate(fresh)
	return mo.Some(existing)
}

func (s *EntityStore) RemoveInvite(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.invites[code]; ok {
		delete(s.invitesByChannel[i.ChannelID], code)
		if len(s.invitesByChannel[i.ChannelID]) == 0 {
			delete(s.invitesByChannel, i.ChannelID)
		}
	}
	delete(s.invites, code)
}

// GuildInvites returns the cached invites pointing at any of the guild's
// channels, in code order.
func (s *EntityStore) GuildInvites(guildID snowflake.ID) []*models.Invite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Invite{}
	for channelID := range s.channelsByGuild[guildID] {
		for _, invite := range s.invitesByChannel[channelID] {
			out = append(out, invite)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
