package model

// GameRole is the privilege scope a credential grants for one game.
type GameRole string

const (
	RoleHost   GameRole = "host"
	RoleAdmin  GameRole = "admin"
	RolePlayer GameRole = "player"
)

func (r GameRole) Valid() bool {
	switch r {
	case RoleHost, RoleAdmin, RolePlayer:
		return true
	}
	return false
}

// Joinable reports whether the role can be requested through joinGame.
// Host is only ever assigned at creation.
func (r GameRole) Joinable() bool {
	return r == RoleAdmin || r == RolePlayer
}
