package teams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrUpdatePlayer(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Big Joe", 19))
	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Patty", 88))

	// Same number updates the name instead of duplicating the player.
	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Joe", 19))

	snapshot, err := m.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Sharks", snapshot[0].Name)
	require.Len(t, snapshot[0].Players, 2)
	assert.Equal(t, "Joe", snapshot[0].Players[0].Name)
	assert.Equal(t, 19, snapshot[0].Players[0].Number)
	assert.False(t, snapshot[0].Players[0].HasImage)
}

func TestRemovePlayer(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Kings", "Kopi", 11))
	require.NoError(t, m.RemovePlayer(ctx, "Kings", 11))

	snapshot, err := m.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Empty(t, snapshot[0].Players)

	// Removing an unknown player is a no-op.
	assert.NoError(t, m.RemovePlayer(ctx, "Kings", 42))
}

func TestDeleteTeam(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Wings", "Stevie", 19))
	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Avs", "Joe", 90))
	require.NoError(t, m.DeleteTeam(ctx, "Wings"))

	snapshot, err := m.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "Avs", snapshot[0].Name)
}

func TestPlayerImages(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Joe", 19))

	_, err = m.PlayerImage(ctx, "Sharks", 19)
	assert.ErrorIs(t, err, Missing)

	blob := []byte{0xff, 0xd8, 0xff, 0x00}
	require.NoError(t, m.SavePlayerImage(ctx, "Sharks", 19, blob, ".jpg"))

	data, err := m.PlayerImage(ctx, "Sharks", 19)
	require.NoError(t, err)
	assert.Equal(t, blob, data)

	snapshot, err := m.Teams(ctx)
	require.NoError(t, err)
	assert.True(t, snapshot[0].Players[0].HasImage)

	// Uploading for a player that is not on the roster fails.
	assert.Error(t, m.SavePlayerImage(ctx, "Sharks", 99, blob, ".jpg"))
}

func TestReuploadRemovesOldBlob(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Joe", 19))
	require.NoError(t, m.SavePlayerImage(ctx, "Sharks", 19, []byte{0xff, 0xd8}, ".jpg"))

	// A new extension means a new key; the jpg blob must not stay behind.
	require.NoError(t, m.SavePlayerImage(ctx, "Sharks", 19, []byte{0x89, 0x50}, ".png"))

	_, err = m.images.Get(ctx, imageKey("Sharks", 19, ".jpg"))
	assert.ErrorIs(t, err, Missing)

	data, err := m.PlayerImage(ctx, "Sharks", 19)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, data)
}

func TestRosterSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m, err := NewManager(dir)
	require.NoError(t, err)
	require.NoError(t, m.AddOrUpdatePlayer(ctx, "Sharks", "Joe", 19))

	reopened, err := NewManager(dir)
	require.NoError(t, err)

	player, err := reopened.FindPlayer(ctx, "Sharks", 19)
	require.NoError(t, err)
	assert.Equal(t, "Joe", player.Name)
}

func TestImageKeyFlattensHostileNames(t *testing.T) {
	assert.Equal(t, "___Sharks-19.jpg", imageKey("../Sharks", 19, ".jpg"))
	assert.Equal(t, "Sharks-19.png", imageKey("Sharks", 19, "png"))
}
