package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

func newGame(id string, state model.GameState) *model.Game {
	return &model.Game{
		Id:       id,
		Settings: model.GameSettings{Name: "hunt", MaxPlayers: 4},
		State:    state,
		Host:     "hosty",
		Admins:   []string{},
		Players:  []string{},
	}
}

func TestInsertAndGetGame(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "hosty", game.Host)

	count, err := s.CountGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInsertGameDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	assert.ErrorIs(t, s.InsertGame(ctx, newGame("g1", model.GameReady)), storage.ErrNoneModified)
}

func TestGetGameMissing(t *testing.T) {
	s := New()

	_, err := s.GetGame(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetGameForUpdateInsideTransact(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameNotReady)))

	err := s.Transact(ctx, func(tx storage.Store) error {
		game, err := tx.GetGameForUpdate(ctx, "g1")
		if err != nil {
			return err
		}
		assert.Equal(t, model.GameNotReady, game.State)

		if _, err := tx.GetGameForUpdate(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return nil
	})
	require.NoError(t, err)
}

func TestGetGameReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	game.Players = append(game.Players, "intruder")
	game.State = model.GameEnded

	stored, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, stored.Players)
	assert.Equal(t, model.GameReady, stored.State)
}

func TestAddMemberIdempotenceRejected(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	require.NoError(t, s.AddMember(ctx, "g1", "alice", model.RolePlayer))

	// A second add of the same member modifies nothing.
	assert.ErrorIs(t, s.AddMember(ctx, "g1", "alice", model.RolePlayer), storage.ErrNoneModified)
	assert.ErrorIs(t, s.AddMember(ctx, "g1", "alice", model.RoleAdmin), storage.ErrNoneModified)

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, game.Players)
	assert.Empty(t, game.Admins)
}

func TestAddMemberUnknownGame(t *testing.T) {
	s := New()

	err := s.AddMember(context.Background(), "missing", "alice", model.RolePlayer)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRemoveMemberAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	assert.ErrorIs(t, s.RemoveMember(ctx, "g1", "alice"), storage.ErrNoneModified)
}

func TestRemoveMemberFromEitherRoster(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	require.NoError(t, s.AddMember(ctx, "g1", "alice", model.RoleAdmin))
	require.NoError(t, s.AddMember(ctx, "g1", "bob", model.RolePlayer))

	require.NoError(t, s.RemoveMember(ctx, "g1", "alice"))
	require.NoError(t, s.RemoveMember(ctx, "g1", "bob"))

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, game.Admins)
	assert.Empty(t, game.Players)
}

func TestCountMembers(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	require.NoError(t, s.AddMember(ctx, "g1", "alice", model.RolePlayer))
	require.NoError(t, s.AddMember(ctx, "g1", "bob", model.RolePlayer))
	require.NoError(t, s.AddMember(ctx, "g1", "carol", model.RoleAdmin))

	players, err := s.CountMembers(ctx, "g1", model.RolePlayer)
	require.NoError(t, err)
	assert.Equal(t, 2, players)

	admins, err := s.CountMembers(ctx, "g1", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)
}

func TestConditionalStateTransitions(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameNotReady)))

	// Guards only fire from the expected source state.
	assert.ErrorIs(t, s.SetGameRunning(ctx, "g1", 100, 200), storage.ErrNoneModified)
	assert.ErrorIs(t, s.SetGameEnded(ctx, "g1", 200), storage.ErrNoneModified)

	require.NoError(t, s.MarkGameReady(ctx, "g1"))
	assert.ErrorIs(t, s.MarkGameReady(ctx, "g1"), storage.ErrNoneModified)

	require.NoError(t, s.SetGameRunning(ctx, "g1", 100, 200))
	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, model.GameRunning, game.State)
	assert.Equal(t, int64(100), game.Settings.StartTime)
	assert.Equal(t, int64(200), game.Settings.EndTime)

	require.NoError(t, s.SetGameEnded(ctx, "g1", 150))
	game, err = s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, model.GameEnded, game.State)
	assert.Equal(t, int64(150), game.Settings.EndTime)
}

func TestSetGameEndedClearsSchedule(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	require.NoError(t, s.SetGameRunning(ctx, "g1", 100, 200))
	require.NoError(t, s.SetStopSchedule(ctx, "g1", "arn:aws:scheduler:::schedule/default/x"))

	require.NoError(t, s.SetGameEnded(ctx, "g1", 150))

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, game.StopScheduleArn)
}

func TestTransactCommits(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Transact(ctx, func(tx storage.Store) error {
		if err := tx.InsertGame(ctx, newGame("g1", model.GameNotReady)); err != nil {
			return err
		}
		if err := tx.AddMember(ctx, "g1", "alice", model.RolePlayer); err != nil {
			return err
		}
		return tx.MarkGameReady(ctx, "g1")
	})
	require.NoError(t, err)

	game, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, model.GameReady, game.State)
	assert.Equal(t, []string{"alice"}, game.Players)
}

func TestTransactRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertGame(ctx, newGame("g1", model.GameReady)))
	require.NoError(t, s.InsertPlayer(ctx, &model.Player{Id: "p1", GameId: "g1", Username: "alice"}))

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx storage.Store) error {
		if err := tx.DeleteGame(ctx, "g1"); err != nil {
			return err
		}
		if _, err := tx.DeletePlayersByGame(ctx, "g1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetGame(ctx, "g1")
	assert.NoError(t, err)
	_, err = s.GetPlayer(ctx, "g1", "alice")
	assert.NoError(t, err)
}

func TestDeletePlayersByGame(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertPlayer(ctx, &model.Player{Id: "p1", GameId: "g1", Username: "alice"}))
	require.NoError(t, s.InsertPlayer(ctx, &model.Player{Id: "p2", GameId: "g1", Username: "bob"}))
	require.NoError(t, s.InsertPlayer(ctx, &model.Player{Id: "p3", GameId: "g2", Username: "alice"}))

	removed, err := s.DeletePlayersByGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = s.GetPlayer(ctx, "g2", "alice")
	assert.NoError(t, err)
}
