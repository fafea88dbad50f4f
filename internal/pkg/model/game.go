package model

// GameSettings is the host-provided configuration embedded in a game.
// Duration is in seconds, 0 meaning untimed. StartTime and EndTime are epoch
// milliseconds, 0 meaning unset.
type GameSettings struct {
	Name             string `json:"name"`
	Duration         int64  `json:"duration"`
	StartTime        int64  `json:"startTime"`
	EndTime          int64  `json:"endTime"`
	Ordered          bool   `json:"ordered"`
	MinPlayers       int    `json:"minPlayers"`
	MaxPlayers       int    `json:"maxPlayers"`
	JoinMidGame      bool   `json:"joinMidGame"`
	NumRequiredTasks int    `json:"numRequiredTasks"`
}

// Game is the authoritative record of a match session. A username appears in
// at most one of Host, Admins, Players.
type Game struct {
	Id              string       `json:"gameId"`
	Settings        GameSettings `json:"settings"`
	Tasks           []Task       `json:"tasks"`
	State           GameState    `json:"state"`
	Host            string       `json:"host"`
	Admins          []string     `json:"admins"`
	Players         []string     `json:"players"`
	StopScheduleArn string       `json:"-"`
	TimeCreated     int64        `json:"timeCreated"`
}

// HasMember reports whether the username already holds any role in the game.
func (g *Game) HasMember(username string) bool {
	if g.Host == username {
		return true
	}
	for _, a := range g.Admins {
		if a == username {
			return true
		}
	}
	for _, p := range g.Players {
		if p == username {
			return true
		}
	}
	return false
}
