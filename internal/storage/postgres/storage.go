// Package postgres is the production Store. Games are stored across the
// game, game_task and game_member tables; player progress lives in player.
// Multi-table units of work run through gorm callback transactions.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

type Storage struct {
	db *gorm.DB
}

var _ storage.Store = (*Storage)(nil)

func New(db *gorm.DB) *Storage {
	return &Storage{db: db}
}

type gameRow struct {
	Id               string
	Name             string
	Duration         int64
	StartTime        int64
	EndTime          int64
	Ordered          bool
	MinPlayers       int
	MaxPlayers       int
	JoinMidGame      bool
	NumRequiredTasks int
	State            string
	Host             string
	StopScheduleArn  string
	TimeCreated      int64
}

func (gameRow) TableName() string {
	return "game"
}

type taskRow struct {
	Id          string
	GameId      string
	Position    int
	Description string
	Points      int
}

func (taskRow) TableName() string {
	return "game_task"
}

type memberRow struct {
	GameId   string
	Username string
	Role     string
}

func (memberRow) TableName() string {
	return "game_member"
}

type playerRow struct {
	Id             string
	GameId         string
	Username       string
	Points         int
	TasksSubmitted string
	Done           bool
}

func (playerRow) TableName() string {
	return "player"
}

func toGameRow(g *model.Game) gameRow {
	return gameRow{
		Id:               g.Id,
		Name:             g.Settings.Name,
		Duration:         g.Settings.Duration,
		StartTime:        g.Settings.StartTime,
		EndTime:          g.Settings.EndTime,
		Ordered:          g.Settings.Ordered,
		MinPlayers:       g.Settings.MinPlayers,
		MaxPlayers:       g.Settings.MaxPlayers,
		JoinMidGame:      g.Settings.JoinMidGame,
		NumRequiredTasks: g.Settings.NumRequiredTasks,
		State:            string(g.State),
		Host:             g.Host,
		StopScheduleArn:  g.StopScheduleArn,
		TimeCreated:      g.TimeCreated,
	}
}

func fromGameRow(r gameRow, tasks []taskRow, members []memberRow) model.Game {
	g := model.Game{
		Id: r.Id,
		Settings: model.GameSettings{
			Name:             r.Name,
			Duration:         r.Duration,
			StartTime:        r.StartTime,
			EndTime:          r.EndTime,
			Ordered:          r.Ordered,
			MinPlayers:       r.MinPlayers,
			MaxPlayers:       r.MaxPlayers,
			JoinMidGame:      r.JoinMidGame,
			NumRequiredTasks: r.NumRequiredTasks,
		},
		State:           model.GameState(r.State),
		Host:            r.Host,
		Admins:          []string{},
		Players:         []string{},
		StopScheduleArn: r.StopScheduleArn,
		TimeCreated:     r.TimeCreated,
	}
	for _, t := range tasks {
		g.Tasks = append(g.Tasks, model.Task{Id: t.Id, Description: t.Description, Points: t.Points})
	}
	for _, m := range members {
		switch model.GameRole(m.Role) {
		case model.RoleAdmin:
			g.Admins = append(g.Admins, m.Username)
		case model.RolePlayer:
			g.Players = append(g.Players, m.Username)
		}
	}
	return g
}

func (p *Storage) Transact(ctx context.Context, fn func(tx storage.Store) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx})
	})
}

func (p *Storage) CountGames(ctx context.Context) (int64, error) {
	var count int64
	res := p.db.WithContext(ctx).Table("game").Count(&count)
	return count, res.Error
}

func (p *Storage) InsertGame(ctx context.Context, game *model.Game) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toGameRow(game)
		if res := tx.Table("game").Create(&row); res.Error != nil {
			return res.Error
		}
		if len(game.Tasks) == 0 {
			return nil
		}
		rows := make([]taskRow, 0, len(game.Tasks))
		for i, t := range game.Tasks {
			rows = append(rows, taskRow{
				Id:          t.Id,
				GameId:      game.Id,
				Position:    i,
				Description: t.Description,
				Points:      t.Points,
			})
		}
		res := tx.Table("game_task").Create(&rows)
		return res.Error
	})
}

func (p *Storage) GetGame(ctx context.Context, id string) (*model.Game, error) {
	return p.getGame(ctx, id, "SELECT * FROM game WHERE id = ?")
}

// GetGameForUpdate takes a row lock on the game so roster writes that follow
// in the same transaction cannot race a concurrent join.
func (p *Storage) GetGameForUpdate(ctx context.Context, id string) (*model.Game, error) {
	return p.getGame(ctx, id, "SELECT * FROM game WHERE id = ? FOR UPDATE")
}

func (p *Storage) getGame(ctx context.Context, id string, query string) (*model.Game, error) {
	var row gameRow
	res := p.db.WithContext(ctx).Raw(query, id).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}

	var tasks []taskRow
	res = p.db.WithContext(ctx).
		Raw("SELECT * FROM game_task WHERE game_id = ? ORDER BY position", id).
		Scan(&tasks)
	if res.Error != nil {
		return nil, res.Error
	}

	var members []memberRow
	res = p.db.WithContext(ctx).
		Raw("SELECT * FROM game_member WHERE game_id = ?", id).
		Scan(&members)
	if res.Error != nil {
		return nil, res.Error
	}

	game := fromGameRow(row, tasks, members)
	return &game, nil
}

func (p *Storage) ListGames(ctx context.Context) ([]model.Game, error) {
	var rows []gameRow
	res := p.db.WithContext(ctx).Raw("SELECT * FROM game ORDER BY time_created").Scan(&rows)
	if res.Error != nil {
		return nil, res.Error
	}

	var tasks []taskRow
	res = p.db.WithContext(ctx).Raw("SELECT * FROM game_task ORDER BY position").Scan(&tasks)
	if res.Error != nil {
		return nil, res.Error
	}
	tasksByGame := map[string][]taskRow{}
	for _, t := range tasks {
		tasksByGame[t.GameId] = append(tasksByGame[t.GameId], t)
	}

	var members []memberRow
	res = p.db.WithContext(ctx).Raw("SELECT * FROM game_member").Scan(&members)
	if res.Error != nil {
		return nil, res.Error
	}
	membersByGame := map[string][]memberRow{}
	for _, m := range members {
		membersByGame[m.GameId] = append(membersByGame[m.GameId], m)
	}

	games := make([]model.Game, 0, len(rows))
	for _, r := range rows {
		games = append(games, fromGameRow(r, tasksByGame[r.Id], membersByGame[r.Id]))
	}
	return games, nil
}

func (p *Storage) DeleteGame(ctx context.Context, id string) error {
	if res := p.db.WithContext(ctx).Exec("DELETE FROM game_task WHERE game_id = ?", id); res.Error != nil {
		return res.Error
	}
	if res := p.db.WithContext(ctx).Exec("DELETE FROM game_member WHERE game_id = ?", id); res.Error != nil {
		return res.Error
	}
	res := p.db.WithContext(ctx).Exec("DELETE FROM game WHERE id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return storage.ErrNoneModified
	}
	return nil
}

func (p *Storage) AddMember(ctx context.Context, gameId, username string, role model.GameRole) error {
	res := p.db.WithContext(ctx).Exec(
		"INSERT INTO game_member (game_id, username, role) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		gameId, username, string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return storage.ErrNoneModified
	}
	return nil
}

func (p *Storage) RemoveMember(ctx context.Context, gameId, username string) error {
	res := p.db.WithContext(ctx).Exec(
		"DELETE FROM game_member WHERE game_id = ? AND username = ?", gameId, username)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNoneModified
	}
	return nil
}

func (p *Storage) CountMembers(ctx context.Context, gameId string, role model.GameRole) (int, error) {
	var count int
	res := p.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM game_member WHERE game_id = ? AND role = ?", gameId, string(role)).
		Scan(&count)
	return count, res.Error
}

func (p *Storage) MarkGameReady(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Exec(
		"UPDATE game SET state = ? WHERE id = ? AND state = ?",
		string(model.GameReady), id, string(model.GameNotReady))
	return checkOneModified(res)
}

func (p *Storage) SetGameRunning(ctx context.Context, id string, startTime, endTime int64) error {
	res := p.db.WithContext(ctx).Exec(
		"UPDATE game SET state = ?, start_time = ?, end_time = ? WHERE id = ? AND state = ?",
		string(model.GameRunning), startTime, endTime, id, string(model.GameReady))
	return checkOneModified(res)
}

func (p *Storage) SetGameEnded(ctx context.Context, id string, endTime int64) error {
	res := p.db.WithContext(ctx).Exec(
		"UPDATE game SET state = ?, end_time = ?, stop_schedule_arn = '' WHERE id = ? AND state = ?",
		string(model.GameEnded), endTime, id, string(model.GameRunning))
	return checkOneModified(res)
}

func (p *Storage) SetStopSchedule(ctx context.Context, id, scheduleArn string) error {
	res := p.db.WithContext(ctx).Exec(
		"UPDATE game SET stop_schedule_arn = ? WHERE id = ?", scheduleArn, id)
	return checkOneModified(res)
}

func (p *Storage) InsertPlayer(ctx context.Context, player *model.Player) error {
	submitted, err := json.Marshal(player.TasksSubmitted)
	if err != nil {
		return err
	}
	row := playerRow{
		Id:             player.Id,
		GameId:         player.GameId,
		Username:       player.Username,
		Points:         player.Points,
		TasksSubmitted: string(submitted),
		Done:           player.Done,
	}
	res := p.db.WithContext(ctx).Table("player").Create(&row)
	return res.Error
}

func (p *Storage) GetPlayer(ctx context.Context, gameId, username string) (*model.Player, error) {
	var row playerRow
	res := p.db.WithContext(ctx).
		Raw("SELECT * FROM player WHERE game_id = ? AND username = ?", gameId, username).
		First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}

	player := model.Player{
		Id:       row.Id,
		GameId:   row.GameId,
		Username: row.Username,
		Points:   row.Points,
		Done:     row.Done,
	}
	if row.TasksSubmitted != "" {
		if err := json.Unmarshal([]byte(row.TasksSubmitted), &player.TasksSubmitted); err != nil {
			return nil, err
		}
	}
	return &player, nil
}

func (p *Storage) DeletePlayersByGame(ctx context.Context, gameId string) (int64, error) {
	res := p.db.WithContext(ctx).Exec("DELETE FROM player WHERE game_id = ?", gameId)
	return res.RowsAffected, res.Error
}

func checkOneModified(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return storage.ErrNoneModified
	}
	return nil
}
