package reject

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	CodeUnauthorized     = "error.token.invalid"
	CodeForbidden        = "error.token.forbidden"
	CodeGameNotFound     = "error.game.not-found"
	CodePlayerNotFound   = "error.player.not-found"
	CodeInvalidState     = "error.game.invalid-state"
	CodeCapacityExceeded = "error.game.capacity-exceeded"
	CodeAlreadyMember    = "error.game.already-member"
	CodeInvalidAdminCode = "error.game.invalid-admin-code"
	CodeMissingScheduler = "error.game.scheduler-config-missing"
	CodePersistence      = "error.data.access"
	CodeScheduler        = "error.scheduler.unavailable"

	cannotParseParams = "error.generic.cannot-parse-params"
	cannotParseBody   = "error.generic.cannot-parse-payload"
	genericUnexpected = "error.generic.unexpected"
)

func UnauthorizedProblem(detail string) Problem {
	return NewProblem().
		WithTitle("Cannot verify credentials").
		WithStatus(http.StatusUnauthorized).
		WithCode(CodeUnauthorized).
		WithDetail(detail).
		Build()
}

func ForbiddenProblem(detail string) Problem {
	return NewProblem().
		WithTitle("Credentials lack the required privilege").
		WithStatus(http.StatusForbidden).
		WithCode(CodeForbidden).
		WithDetail(detail).
		Build()
}

func GameNotFoundProblem(gameId string) Problem {
	return NewProblem().
		WithTitle("Game not found").
		WithStatus(http.StatusNotFound).
		WithCode(CodeGameNotFound).
		WithParam("gameId", gameId).
		Build()
}

func PlayerNotFoundProblem(gameId string, username string) Problem {
	return NewProblem().
		WithTitle("Player record not found").
		WithStatus(http.StatusNotFound).
		WithCode(CodePlayerNotFound).
		WithParam("gameId", gameId).
		WithParam("username", username).
		Build()
}

func InvalidStateProblem(current string, operation string) Problem {
	return NewProblem().
		WithTitle("Operation not allowed in current game state").
		WithStatus(http.StatusConflict).
		WithCode(CodeInvalidState).
		WithParam("state", current).
		WithParam("operation", operation).
		Build()
}

func CapacityProblem(capacity string, limit string) Problem {
	return NewProblem().
		WithTitle("Capacity exceeded").
		WithStatus(http.StatusConflict).
		WithCode(CodeCapacityExceeded).
		WithParam("capacity", capacity).
		WithParam("limit", limit).
		Build()
}

func AlreadyMemberProblem(username string) Problem {
	return NewProblem().
		WithTitle("User is already a member of this game").
		WithStatus(http.StatusConflict).
		WithCode(CodeAlreadyMember).
		WithParam("username", username).
		Build()
}

func InvalidAdminCodeProblem() Problem {
	return NewProblem().
		WithTitle("Admin code does not match").
		WithStatus(http.StatusForbidden).
		WithCode(CodeInvalidAdminCode).
		Build()
}

func MissingSchedulerConfigProblem() Problem {
	return NewProblem().
		WithTitle("Timed games require a scheduler target and trigger payload").
		WithStatus(http.StatusBadRequest).
		WithCode(CodeMissingScheduler).
		Build()
}

func PersistenceProblem(err error) Problem {
	log.Warn().Err(err).Msg("Persistence failure while handling request")
	return NewProblem().
		WithTitle("Trouble writing to the database").
		WithStatus(http.StatusInternalServerError).
		WithCode(CodePersistence).
		Build()
}

func SchedulerProblem(err error) Problem {
	log.Warn().Err(err).Msg("Scheduler gateway failure while handling request")
	return NewProblem().
		WithTitle("Could not register game end schedule").
		WithStatus(http.StatusBadGateway).
		WithCode(CodeScheduler).
		Build()
}

func RequestParamsProblem() Problem {
	return NewProblem().
		WithTitle("Invalid request parameters").
		WithStatus(http.StatusBadRequest).
		WithCode(cannotParseParams).
		Build()
}

func BodyParseProblem() Problem {
	return NewProblem().
		WithTitle("Cannot read payload").
		WithStatus(http.StatusBadRequest).
		WithCode(cannotParseBody).
		Build()
}

func UnexpectedProblem(err error) Problem {
	log.Warn().Err(err).Msg("Unexpected error while handling request")
	return NewProblem().
		WithTitle("Unexpected error").
		WithStatus(http.StatusInternalServerError).
		WithCode(genericUnexpected).
		Build()
}
