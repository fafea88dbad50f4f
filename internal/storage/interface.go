package storage

import (
	"context"
	"errors"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
)

// ErrNotFound is returned when an id does not resolve to a record.
var ErrNotFound = errors.New("record not found")

// ErrNoneModified is returned when a write was acknowledged but did not
// modify exactly the expected record. It signals a lost race or an
// already-applied mutation, never a transient fault, so callers surface it
// instead of retrying.
var ErrNoneModified = errors.New("no record modified")

// Store is the persistence boundary for games and players. Conditional
// updates (MarkGameReady, SetGameRunning, SetGameEnded) carry their state
// guard in the write itself and return ErrNoneModified when the guard does
// not hold.
type Store interface {
	// Transact runs fn against a transactional view. Both sides commit or
	// neither does; the transaction is always closed before Transact returns.
	Transact(ctx context.Context, fn func(tx Store) error) error

	CountGames(ctx context.Context) (int64, error)
	InsertGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id string) (*model.Game, error)
	// GetGameForUpdate is GetGame with the record locked until the enclosing
	// transaction closes, so roster decisions read from it serialize across
	// concurrent units of work.
	GetGameForUpdate(ctx context.Context, id string) (*model.Game, error)
	ListGames(ctx context.Context) ([]model.Game, error)
	DeleteGame(ctx context.Context, id string) error

	// AddMember is add-to-set: ErrNoneModified when the username already
	// holds a role in the game. RemoveMember is pull: ErrNoneModified when
	// it holds none.
	AddMember(ctx context.Context, gameId string, username string, role model.GameRole) error
	RemoveMember(ctx context.Context, gameId string, username string) error
	CountMembers(ctx context.Context, gameId string, role model.GameRole) (int, error)

	MarkGameReady(ctx context.Context, id string) error
	SetGameRunning(ctx context.Context, id string, startTime int64, endTime int64) error
	SetGameEnded(ctx context.Context, id string, endTime int64) error
	SetStopSchedule(ctx context.Context, id string, scheduleArn string) error

	InsertPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, gameId string, username string) (*model.Player, error)
	DeletePlayersByGame(ctx context.Context, gameId string) (int64, error)
}
