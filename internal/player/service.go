package player

import (
	"context"
	"errors"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

type playerService struct {
	store  storage.Store
	tokens *auth.TokenService
}

// getOwnPlayer returns the caller's progress record for the game their
// credential is scoped to.
func (ps *playerService) getOwnPlayer(ctx context.Context, rawToken string, gameId string) (*model.Player, *reject.ProblemWithTrace) {
	identity, pwt := ps.tokens.Verify(rawToken, gameId, model.RolePlayer)
	if pwt != nil {
		return nil, pwt
	}

	player, err := ps.store.GetPlayer(ctx, gameId, identity.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &reject.ProblemWithTrace{
			Problem: reject.PlayerNotFoundProblem(gameId, identity.Username),
			Cause:   err,
		}
	}
	if err != nil {
		return nil, reject.PersistenceProblem(err).WithTrace(err)
	}
	return player, nil
}
