package game

import (
	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/scheduler"
)

type TaskRequest struct {
	Description string `json:"description"`
	Points      int    `json:"points"`
}

type CreateGameRequest struct {
	Settings model.GameSettings `json:"settings"`
	Tasks    []TaskRequest      `json:"tasks"`
}

type CreateGameConfirmation struct {
	Credentials auth.Credentials `json:"credentials"`
	GameId      string           `json:"gameId"`
	TaskIds     []string         `json:"taskIds"`
}

type JoinGameRequest struct {
	Role      model.GameRole `json:"role"`
	AdminCode string         `json:"adminCode"`
}

// StartGameRequest carries the scheduler wiring for timed games. The payload
// is merged with the gameId and fromSchedule marker before registration, so
// the fired trigger routes back into the stop operation.
type StartGameRequest struct {
	SchedulerTarget *scheduler.Target `json:"schedulerTarget"`
	TriggerPayload  map[string]any    `json:"triggerPayload"`
}

type StopGameRequest struct {
	FromSchedule bool `json:"fromSchedule"`
}

type GameTimes struct {
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`
}

// PublicGame is the projection returned without authorization: the full
// roster, but no internal fields such as the stop schedule handle or task
// contents.
type PublicGame struct {
	GameId   string             `json:"gameId"`
	Settings model.GameSettings `json:"settings"`
	NumTasks int                `json:"numTasks"`
	State    model.GameState    `json:"state"`
	Host     string             `json:"host"`
	Admins   []string           `json:"admins"`
	Players  []string           `json:"players"`
}
