package model

// GameState is the lifecycle state of a game. Transitions only move forward:
// not-ready -> ready -> running -> ended.
type GameState string

const (
	GameNotReady GameState = "not-ready"
	GameReady    GameState = "ready"
	GameRunning  GameState = "running"
	GameEnded    GameState = "ended"
)

var nextState = map[GameState]GameState{
	GameNotReady: GameReady,
	GameReady:    GameRunning,
	GameRunning:  GameEnded,
}

func (s GameState) Valid() bool {
	switch s {
	case GameNotReady, GameReady, GameRunning, GameEnded:
		return true
	}
	return false
}

func (s GameState) CanTransitionTo(next GameState) bool {
	return nextState[s] == next
}

// Deletable reports whether a game in this state may be removed. A running
// game must be stopped first.
func (s GameState) Deletable() bool {
	return s != GameRunning
}
