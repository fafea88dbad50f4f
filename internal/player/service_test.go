package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
	"github.com/questline-hq/taskhunt-backend/internal/storage/memory"
)

func newTestService(t *testing.T) (playerService, *auth.TokenService, *memory.Storage) {
	t.Helper()
	clk := clock.NewMock(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC))
	tokens := auth.NewTokenService([]byte("access-test-key"), []byte("refresh-test-key"), clk)
	store := memory.New()
	return playerService{store: store, tokens: tokens}, tokens, store
}

func playerToken(t *testing.T, tokens *auth.TokenService, gameId, username string) string {
	t.Helper()
	creds, err := tokens.Upgrade(auth.Identity{UserId: username + "-id", Username: username}, gameId, model.RolePlayer)
	require.NoError(t, err)
	return creds.AccessToken
}

func TestGetOwnPlayer(t *testing.T) {
	svc, tokens, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPlayer(ctx, &model.Player{
		Id:       "p1",
		GameId:   "g1",
		Username: "alice",
		Points:   7,
	}))

	player, pwt := svc.getOwnPlayer(ctx, playerToken(t, tokens, "g1", "alice"), "g1")
	require.Nil(t, pwt)
	assert.Equal(t, 7, player.Points)
}

func TestGetOwnPlayerMissingRecord(t *testing.T) {
	svc, tokens, _ := newTestService(t)

	_, pwt := svc.getOwnPlayer(context.Background(), playerToken(t, tokens, "g1", "alice"), "g1")
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodePlayerNotFound, pwt.Problem.Code)
}

func TestGetOwnPlayerRequiresPlayerRole(t *testing.T) {
	svc, tokens, _ := newTestService(t)

	creds, err := tokens.Upgrade(auth.Identity{UserId: "h-id", Username: "hosty"}, "g1", model.RoleHost)
	require.NoError(t, err)

	_, pwt := svc.getOwnPlayer(context.Background(), creds.AccessToken, "g1")
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeForbidden, pwt.Problem.Code)
}
