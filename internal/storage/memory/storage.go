// Package memory provides an in-process Store used by tests. Transactions
// snapshot the maps and restore them when the unit of work fails, matching
// the commit-or-abort contract of the postgres store.
package memory

import (
	"context"
	"sync"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

type Storage struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string]*model.Player
}

var _ storage.Store = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		games:   map[string]*model.Game{},
		players: map[string]*model.Player{},
	}
}

func playerKey(gameId, username string) string {
	return gameId + "/" + username
}

func copyGame(g *model.Game) *model.Game {
	c := *g
	c.Tasks = append([]model.Task(nil), g.Tasks...)
	c.Admins = append([]string(nil), g.Admins...)
	c.Players = append([]string(nil), g.Players...)
	return &c
}

func copyPlayer(p *model.Player) *model.Player {
	c := *p
	c.TasksSubmitted = append([]string(nil), p.TasksSubmitted...)
	return &c
}

func (m *Storage) snapshot() (map[string]*model.Game, map[string]*model.Player) {
	games := make(map[string]*model.Game, len(m.games))
	for id, g := range m.games {
		games[id] = copyGame(g)
	}
	players := make(map[string]*model.Player, len(m.players))
	for k, p := range m.players {
		players[k] = copyPlayer(p)
	}
	return games, players
}

func (m *Storage) Transact(ctx context.Context, fn func(tx storage.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	games, players := m.snapshot()
	if err := fn(&txView{m}); err != nil {
		m.games = games
		m.players = players
		return err
	}
	return nil
}

func (m *Storage) CountGames(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countGames()
}

func (m *Storage) InsertGame(ctx context.Context, game *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertGame(game)
}

func (m *Storage) GetGame(ctx context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getGame(id)
}

// GetGameForUpdate needs no extra locking here: the store mutex already
// serializes whole transactions.
func (m *Storage) GetGameForUpdate(ctx context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getGame(id)
}

func (m *Storage) ListGames(ctx context.Context) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listGames()
}

func (m *Storage) DeleteGame(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteGame(id)
}

func (m *Storage) AddMember(ctx context.Context, gameId, username string, role model.GameRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addMember(gameId, username, role)
}

func (m *Storage) RemoveMember(ctx context.Context, gameId, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeMember(gameId, username)
}

func (m *Storage) CountMembers(ctx context.Context, gameId string, role model.GameRole) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countMembers(gameId, role)
}

func (m *Storage) MarkGameReady(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markGameReady(id)
}

func (m *Storage) SetGameRunning(ctx context.Context, id string, startTime, endTime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setGameRunning(id, startTime, endTime)
}

func (m *Storage) SetGameEnded(ctx context.Context, id string, endTime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setGameEnded(id, endTime)
}

func (m *Storage) SetStopSchedule(ctx context.Context, id, scheduleArn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStopSchedule(id, scheduleArn)
}

func (m *Storage) InsertPlayer(ctx context.Context, player *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPlayer(player)
}

func (m *Storage) GetPlayer(ctx context.Context, gameId, username string) (*model.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPlayer(gameId, username)
}

func (m *Storage) DeletePlayersByGame(ctx context.Context, gameId string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePlayersByGame(gameId)
}

// Unlocked implementations. The mutex is held by the public wrappers or by
// Transact for the duration of the unit of work.

func (m *Storage) countGames() (int64, error) {
	return int64(len(m.games)), nil
}

func (m *Storage) insertGame(game *model.Game) error {
	if _, exists := m.games[game.Id]; exists {
		return storage.ErrNoneModified
	}
	m.games[game.Id] = copyGame(game)
	return nil
}

func (m *Storage) getGame(id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyGame(g), nil
}

func (m *Storage) listGames() ([]model.Game, error) {
	games := make([]model.Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, *copyGame(g))
	}
	return games, nil
}

func (m *Storage) deleteGame(id string) error {
	if _, ok := m.games[id]; !ok {
		return storage.ErrNoneModified
	}
	delete(m.games, id)
	return nil
}

func (m *Storage) addMember(gameId, username string, role model.GameRole) error {
	g, ok := m.games[gameId]
	if !ok {
		return storage.ErrNotFound
	}
	if g.HasMember(username) {
		return storage.ErrNoneModified
	}
	switch role {
	case model.RoleAdmin:
		g.Admins = append(g.Admins, username)
	case model.RolePlayer:
		g.Players = append(g.Players, username)
	default:
		return storage.ErrNoneModified
	}
	return nil
}

func (m *Storage) removeMember(gameId, username string) error {
	g, ok := m.games[gameId]
	if !ok {
		return storage.ErrNotFound
	}
	for i, a := range g.Admins {
		if a == username {
			g.Admins = append(g.Admins[:i], g.Admins[i+1:]...)
			return nil
		}
	}
	for i, p := range g.Players {
		if p == username {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return nil
		}
	}
	return storage.ErrNoneModified
}

func (m *Storage) countMembers(gameId string, role model.GameRole) (int, error) {
	g, ok := m.games[gameId]
	if !ok {
		return 0, storage.ErrNotFound
	}
	switch role {
	case model.RoleAdmin:
		return len(g.Admins), nil
	case model.RolePlayer:
		return len(g.Players), nil
	}
	return 0, nil
}

func (m *Storage) markGameReady(id string) error {
	g, ok := m.games[id]
	if !ok || g.State != model.GameNotReady {
		return storage.ErrNoneModified
	}
	g.State = model.GameReady
	return nil
}

func (m *Storage) setGameRunning(id string, startTime, endTime int64) error {
	g, ok := m.games[id]
	if !ok || g.State != model.GameReady {
		return storage.ErrNoneModified
	}
	g.State = model.GameRunning
	g.Settings.StartTime = startTime
	g.Settings.EndTime = endTime
	return nil
}

func (m *Storage) setGameEnded(id string, endTime int64) error {
	g, ok := m.games[id]
	if !ok || g.State != model.GameRunning {
		return storage.ErrNoneModified
	}
	g.State = model.GameEnded
	g.Settings.EndTime = endTime
	g.StopScheduleArn = ""
	return nil
}

func (m *Storage) setStopSchedule(id, scheduleArn string) error {
	g, ok := m.games[id]
	if !ok {
		return storage.ErrNoneModified
	}
	g.StopScheduleArn = scheduleArn
	return nil
}

func (m *Storage) insertPlayer(player *model.Player) error {
	key := playerKey(player.GameId, player.Username)
	if _, exists := m.players[key]; exists {
		return storage.ErrNoneModified
	}
	m.players[key] = copyPlayer(player)
	return nil
}

func (m *Storage) getPlayer(gameId, username string) (*model.Player, error) {
	p, ok := m.players[playerKey(gameId, username)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPlayer(p), nil
}

func (m *Storage) deletePlayersByGame(gameId string) (int64, error) {
	var removed int64
	for k, p := range m.players {
		if p.GameId == gameId {
			delete(m.players, k)
			removed++
		}
	}
	return removed, nil
}

// txView exposes the unlocked implementations inside Transact, where the
// outer lock is already held.
type txView struct {
	m *Storage
}

var _ storage.Store = (*txView)(nil)

func (v *txView) Transact(ctx context.Context, fn func(tx storage.Store) error) error {
	return fn(v)
}

func (v *txView) CountGames(ctx context.Context) (int64, error) { return v.m.countGames() }

func (v *txView) InsertGame(ctx context.Context, game *model.Game) error {
	return v.m.insertGame(game)
}

func (v *txView) GetGame(ctx context.Context, id string) (*model.Game, error) {
	return v.m.getGame(id)
}

func (v *txView) GetGameForUpdate(ctx context.Context, id string) (*model.Game, error) {
	return v.m.getGame(id)
}

func (v *txView) ListGames(ctx context.Context) ([]model.Game, error) { return v.m.listGames() }

func (v *txView) DeleteGame(ctx context.Context, id string) error { return v.m.deleteGame(id) }

func (v *txView) AddMember(ctx context.Context, gameId, username string, role model.GameRole) error {
	return v.m.addMember(gameId, username, role)
}

func (v *txView) RemoveMember(ctx context.Context, gameId, username string) error {
	return v.m.removeMember(gameId, username)
}

func (v *txView) CountMembers(ctx context.Context, gameId string, role model.GameRole) (int, error) {
	return v.m.countMembers(gameId, role)
}

func (v *txView) MarkGameReady(ctx context.Context, id string) error {
	return v.m.markGameReady(id)
}

func (v *txView) SetGameRunning(ctx context.Context, id string, startTime, endTime int64) error {
	return v.m.setGameRunning(id, startTime, endTime)
}

func (v *txView) SetGameEnded(ctx context.Context, id string, endTime int64) error {
	return v.m.setGameEnded(id, endTime)
}

func (v *txView) SetStopSchedule(ctx context.Context, id, scheduleArn string) error {
	return v.m.setStopSchedule(id, scheduleArn)
}

func (v *txView) InsertPlayer(ctx context.Context, player *model.Player) error {
	return v.m.insertPlayer(player)
}

func (v *txView) GetPlayer(ctx context.Context, gameId, username string) (*model.Player, error) {
	return v.m.getPlayer(gameId, username)
}

func (v *txView) DeletePlayersByGame(ctx context.Context, gameId string) (int64, error) {
	return v.m.deletePlayersByGame(gameId)
}
