package model

// Player is the per-game progress record created when a user joins as a
// player. GameId is a back-reference, not ownership: the record is deleted
// when the game is, never the other way around.
type Player struct {
	Id             string   `json:"id"`
	GameId         string   `json:"gameId"`
	Username       string   `json:"username"`
	Points         int      `json:"points"`
	TasksSubmitted []string `json:"tasksSubmitted"`
	Done           bool     `json:"done"`
}
