package model

// Task is a single objective embedded in a game. Ids are assigned when the
// game is created.
type Task struct {
	Id          string `json:"id"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}
