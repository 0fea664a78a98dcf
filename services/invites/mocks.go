package invites

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/mock"
)

type MockGuildJoiner struct {
	mock.Mock
}

func (m *MockGuildJoiner) AddMember(ctx context.Context, guildID, userID snowflake.ID) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}
