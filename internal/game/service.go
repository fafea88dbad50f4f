package game

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/events"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
	"github.com/questline-hq/taskhunt-backend/internal/scheduler"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

// Config is the coordinator's injected configuration. AdminCode gates the
// admin role on join; MaxGames and MaxAdmins are process-wide caps.
type Config struct {
	AdminCode string
	MaxGames  int
	MaxAdmins int
}

type gameService struct {
	store  storage.Store
	tokens *auth.TokenService
	sched  scheduler.Gateway
	events events.Sink
	clock  clock.Clock
	cfg    Config
}

func (gs *gameService) createGame(ctx context.Context, rawToken string, req CreateGameRequest) (*CreateGameConfirmation, *reject.ProblemWithTrace) {
	identity, pwt := gs.tokens.VerifyBare(rawToken)
	if pwt != nil {
		return nil, pwt
	}
	return gs.create(ctx, identity, req)
}

// create is shared by createGame and restartGame. The identity's ambient
// game scope, if any, is discarded by the credential upgrade.
func (gs *gameService) create(ctx context.Context, identity auth.Identity, req CreateGameRequest) (*CreateGameConfirmation, *reject.ProblemWithTrace) {
	count, err := gs.store.CountGames(ctx)
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}
	if count >= int64(gs.cfg.MaxGames) {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.CapacityProblem("games", strconv.Itoa(gs.cfg.MaxGames)),
		}
	}

	settings := req.Settings
	if settings.Duration > 0 {
		settings.EndTime = settings.StartTime + settings.Duration*1000
	} else {
		settings.EndTime = 0
	}

	state := model.GameNotReady
	if settings.MinPlayers == 0 {
		state = model.GameReady
	}

	tasks := make([]model.Task, 0, len(req.Tasks))
	taskIds := make([]string, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		task := model.Task{
			Id:          uuid.NewString(),
			Description: t.Description,
			Points:      t.Points,
		}
		tasks = append(tasks, task)
		taskIds = append(taskIds, task.Id)
	}

	game := &model.Game{
		Id:          uuid.NewString(),
		Settings:    settings,
		Tasks:       tasks,
		State:       state,
		Host:        identity.Username,
		Admins:      []string{},
		Players:     []string{},
		TimeCreated: gs.clock.Now().UnixMilli(),
	}

	if err := gs.store.InsertGame(ctx, game); err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}

	creds, err := gs.tokens.Upgrade(identity, game.Id, model.RoleHost)
	if err != nil {
		return nil, reject.UnexpectedProblem(err).WithTrace(err)
	}

	gs.events.Publish(events.Event{
		Type:       events.GameCreated,
		GameId:     game.Id,
		State:      game.State,
		OccurredAt: game.TimeCreated,
	})

	return &CreateGameConfirmation{
		Credentials: creds,
		GameId:      game.Id,
		TaskIds:     taskIds,
	}, nil
}

// errJoinRefused aborts a join transaction that was rejected on its merits
// rather than by a storage fault.
var errJoinRefused = errors.New("join refused")

func (gs *gameService) joinGame(ctx context.Context, rawToken string, gameId string, req JoinGameRequest) (*auth.Credentials, *reject.ProblemWithTrace) {
	role := req.Role
	if !role.Joinable() {
		return nil, &reject.ProblemWithTrace{Problem: reject.RequestParamsProblem()}
	}
	if role == model.RoleAdmin && req.AdminCode != gs.cfg.AdminCode {
		return nil, &reject.ProblemWithTrace{Problem: reject.InvalidAdminCodeProblem()}
	}

	identity, pwt := gs.tokens.VerifyBare(rawToken)
	if pwt != nil {
		return nil, pwt
	}

	// Membership, capacity and the not-ready -> ready flip are all decided
	// against the locked transactional view of the game, so concurrent joins
	// serialize instead of racing a stale snapshot.
	var refused *reject.ProblemWithTrace
	err := gs.store.Transact(ctx, func(tx storage.Store) error {
		game, err := tx.GetGameForUpdate(ctx, gameId)
		if err != nil {
			return err
		}
		if game.HasMember(identity.Username) {
			refused = &reject.ProblemWithTrace{Problem: reject.AlreadyMemberProblem(identity.Username)}
			return errJoinRefused
		}

		if role == model.RoleAdmin {
			if len(game.Admins) >= gs.cfg.MaxAdmins {
				refused = &reject.ProblemWithTrace{
					Problem: reject.CapacityProblem("admins", strconv.Itoa(gs.cfg.MaxAdmins)),
				}
				return errJoinRefused
			}
			return tx.AddMember(ctx, gameId, identity.Username, model.RoleAdmin)
		}

		if game.State == model.GameEnded {
			refused = &reject.ProblemWithTrace{
				Problem: reject.InvalidStateProblem(string(game.State), "join"),
			}
			return errJoinRefused
		}
		if len(game.Players) >= game.Settings.MaxPlayers {
			refused = &reject.ProblemWithTrace{
				Problem: reject.CapacityProblem("players", strconv.Itoa(game.Settings.MaxPlayers)),
			}
			return errJoinRefused
		}

		player := &model.Player{
			Id:             uuid.NewString(),
			GameId:         gameId,
			Username:       identity.Username,
			Points:         0,
			TasksSubmitted: []string{},
			Done:           game.Settings.NumRequiredTasks == 0,
		}
		if err := tx.InsertPlayer(ctx, player); err != nil {
			return err
		}
		if err := tx.AddMember(ctx, gameId, identity.Username, model.RolePlayer); err != nil {
			return err
		}
		if game.State == model.GameNotReady && len(game.Players)+1 >= game.Settings.MinPlayers {
			return tx.MarkGameReady(ctx, gameId)
		}
		return nil
	})
	if errors.Is(err, errJoinRefused) {
		return nil, refused
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &reject.ProblemWithTrace{Problem: reject.GameNotFoundProblem(gameId), Cause: err}
	}
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}

	creds, err := gs.tokens.Upgrade(identity, gameId, role)
	if err != nil {
		return nil, reject.UnexpectedProblem(err).WithTrace(err)
	}
	return &creds, nil
}

func (gs *gameService) leaveGame(ctx context.Context, rawToken string, gameId string) *reject.ProblemWithTrace {
	identity, pwt := gs.tokens.Verify(rawToken, gameId, model.RolePlayer, model.RoleAdmin)
	if pwt != nil {
		return pwt
	}

	err := gs.store.RemoveMember(ctx, gameId, identity.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return &reject.ProblemWithTrace{Problem: reject.GameNotFoundProblem(gameId), Cause: err}
	}
	if err != nil {
		return reject.PersistenceProblem(err).WithTrace(err)
	}
	return nil
}

func (gs *gameService) startGame(ctx context.Context, rawToken string, gameId string, req StartGameRequest) (*GameTimes, *reject.ProblemWithTrace) {
	_, pwt := gs.tokens.Verify(rawToken, gameId, model.RoleHost, model.RoleAdmin)
	if pwt != nil {
		return nil, pwt
	}

	game, gamePwt := gs.fetchGame(ctx, gameId)
	if gamePwt != nil {
		return nil, gamePwt
	}
	if game.State != model.GameReady {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.InvalidStateProblem(string(game.State), "start"),
		}
	}

	duration := game.Settings.Duration
	if duration > 0 && (req.SchedulerTarget == nil || req.TriggerPayload == nil) {
		return nil, &reject.ProblemWithTrace{Problem: reject.MissingSchedulerConfigProblem()}
	}

	startTime := gs.clock.Now().UnixMilli()
	var endTime int64
	if duration > 0 {
		endTime = startTime + duration*1000
	}

	if err := gs.store.SetGameRunning(ctx, gameId, startTime, endTime); err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}

	if duration > 0 {
		payload := map[string]any{}
		for k, v := range req.TriggerPayload {
			payload[k] = v
		}
		payload["gameId"] = gameId
		payload["fromSchedule"] = true

		// The state mutation above has already committed. A registration
		// failure leaves the game running but unscheduled, so it is surfaced
		// to the caller rather than hidden.
		arn, err := gs.sched.Create(ctx, gameId, time.UnixMilli(endTime), *req.SchedulerTarget, payload)
		if err != nil {
			return nil, reject.SchedulerProblem(err).WithTrace(err)
		}
		if err := gs.store.SetStopSchedule(ctx, gameId, arn); err != nil {
			return nil, reject.PersistenceProblem(err).WithTrace(err)
		}
	}

	gs.events.Publish(events.Event{
		Type:       events.GameStarted,
		GameId:     gameId,
		State:      model.GameRunning,
		OccurredAt: startTime,
	})

	return &GameTimes{StartTime: startTime, EndTime: endTime}, nil
}

func (gs *gameService) stopGame(ctx context.Context, rawToken string, gameId string, fromSchedule bool) (*GameTimes, *reject.ProblemWithTrace) {
	_, pwt := gs.tokens.Verify(rawToken, gameId, model.RoleHost, model.RoleAdmin)
	if pwt != nil {
		return nil, pwt
	}

	game, gamePwt := gs.fetchGame(ctx, gameId)
	if gamePwt != nil {
		return nil, gamePwt
	}
	if game.State != model.GameRunning {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.InvalidStateProblem(string(game.State), "stop"),
		}
	}

	endTime := gs.clock.Now().UnixMilli()
	if err := gs.store.SetGameEnded(ctx, gameId, endTime); err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}

	// When the scheduler itself made this call its one-shot timer is spent;
	// only user-initiated stops need the cleanup. The game has already ended
	// either way, so cancellation failures never fail the operation.
	if !fromSchedule {
		err := gs.sched.Delete(ctx, gameId)
		if err != nil && !errors.Is(err, scheduler.ErrScheduleNotFound) {
			log.Warn().
				Err(err).
				Str("gameId", gameId).
				Msg("Could not cancel stop schedule for ended game")
		}
	}

	gs.events.Publish(events.Event{
		Type:       events.GameEnded,
		GameId:     gameId,
		State:      model.GameEnded,
		OccurredAt: endTime,
	})

	return &GameTimes{StartTime: game.Settings.StartTime, EndTime: endTime}, nil
}

func (gs *gameService) restartGame(ctx context.Context, rawToken string, gameId string) (*CreateGameConfirmation, *reject.ProblemWithTrace) {
	identity, pwt := gs.tokens.Verify(rawToken, gameId, model.RoleHost, model.RoleAdmin)
	if pwt != nil {
		return nil, pwt
	}

	game, gamePwt := gs.fetchGame(ctx, gameId)
	if gamePwt != nil {
		return nil, gamePwt
	}
	if game.State != model.GameEnded {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.InvalidStateProblem(string(game.State), "restart"),
		}
	}

	req := CreateGameRequest{Settings: game.Settings}
	for _, t := range game.Tasks {
		req.Tasks = append(req.Tasks, TaskRequest{Description: t.Description, Points: t.Points})
	}
	return gs.create(ctx, identity, req)
}

func (gs *gameService) deleteGame(ctx context.Context, rawToken string, gameId string) (*model.Game, *reject.ProblemWithTrace) {
	_, pwt := gs.tokens.Verify(rawToken, gameId, model.RoleHost, model.RoleAdmin)
	if pwt != nil {
		return nil, pwt
	}

	game, gamePwt := gs.fetchGame(ctx, gameId)
	if gamePwt != nil {
		return nil, gamePwt
	}
	if !game.State.Deletable() {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.InvalidStateProblem(string(game.State), "delete"),
		}
	}

	err := gs.store.Transact(ctx, func(tx storage.Store) error {
		if err := tx.DeleteGame(ctx, gameId); err != nil {
			return err
		}
		// Zero players is fine; only the game deletion count is checked.
		_, err := tx.DeletePlayersByGame(ctx, gameId)
		return err
	})
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}

	gs.events.Publish(events.Event{
		Type:       events.GameDeleted,
		GameId:     gameId,
		State:      game.State,
		OccurredAt: gs.clock.Now().UnixMilli(),
	})

	return game, nil
}

func (gs *gameService) getGame(ctx context.Context, rawToken string, gameId string) (*model.Game, *reject.ProblemWithTrace) {
	_, pwt := gs.tokens.Verify(rawToken, gameId, model.RoleHost, model.RoleAdmin)
	if pwt != nil {
		return nil, pwt
	}
	return gs.fetchGame(ctx, gameId)
}

func (gs *gameService) getPublicGame(ctx context.Context, gameId string) (*PublicGame, *reject.ProblemWithTrace) {
	game, pwt := gs.fetchGame(ctx, gameId)
	if pwt != nil {
		return nil, pwt
	}
	public := publicProjection(game)
	return &public, nil
}

func (gs *gameService) listPublicGames(ctx context.Context) ([]PublicGame, *reject.ProblemWithTrace) {
	games, err := gs.store.ListGames(ctx)
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}
	public := make([]PublicGame, 0, len(games))
	for i := range games {
		public = append(public, publicProjection(&games[i]))
	}
	return public, nil
}

func (gs *gameService) fetchGame(ctx context.Context, gameId string) (*model.Game, *reject.ProblemWithTrace) {
	game, err := gs.store.GetGame(ctx, gameId)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &reject.ProblemWithTrace{Problem: reject.GameNotFoundProblem(gameId), Cause: err}
	}
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}
	return game, nil
}

func publicProjection(g *model.Game) PublicGame {
	return PublicGame{
		GameId:   g.Id,
		Settings: g.Settings,
		NumTasks: len(g.Tasks),
		State:    g.State,
		Host:     g.Host,
		Admins:   g.Admins,
		Players:  g.Players,
	}
}
