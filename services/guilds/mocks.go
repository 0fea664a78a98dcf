package guilds

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/mock"

	"guildcore/models"
)

type MockPresenceTracker struct {
	mock.Mock
}

func (m *MockPresenceTracker) CreatePresence(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (*models.Presence, error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Presence), args.Error(1)
}

func (m *MockPresenceTracker) StatusUpdate(
	ctx context.Context,
	guildID, userID snowflake.ID,
	status models.PresenceStatus,
) error {
	args := m.Called(ctx, guildID, userID, status)
	return args.Error(0)
}

func (m *MockPresenceTracker) DropGuild(ctx context.Context, guildID snowflake.ID) error {
	args := m.Called(ctx, guildID)
	return args.Error(0)
}

func (m *MockPresenceTracker) DropMember(guildID, userID snowflake.ID) {
	m.Called(guildID, userID)
}

func (m *MockPresenceTracker) PresenceCount(guildID snowflake.ID) int {
	args := m.Called(guildID)
	return args.Int(0)
}
