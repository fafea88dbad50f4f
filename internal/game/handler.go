package game

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/events"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/utils"
	"github.com/questline-hq/taskhunt-backend/internal/scheduler"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

type gameHandler struct {
	gameService gameService
}

func RegisterRoutes(
	rg *gin.RouterGroup,
	store storage.Store,
	tokens *auth.TokenService,
	sched scheduler.Gateway,
	sink events.Sink,
	clk clock.Clock,
	cfg Config,
) {
	handler := gameHandler{
		gameService: gameService{
			store:  store,
			tokens: tokens,
			sched:  sched,
			events: sink,
			clock:  clk,
			cfg:    cfg,
		},
	}

	routes := rg.Group("/game")
	routes.GET("", handler.listPublicGames)
	routes.POST("", handler.createGame)
	routes.GET("/:id", handler.getGame)
	routes.GET("/:id/public", handler.getPublicGame)
	routes.POST("/:id/join", handler.joinGame)
	routes.POST("/:id/leave", handler.leaveGame)
	routes.POST("/:id/start", handler.startGame)
	routes.POST("/:id/stop", handler.stopGame)
	routes.POST("/:id/restart", handler.restartGame)
	routes.DELETE("/:id", handler.deleteGame)
}

func (gh *gameHandler) createGame(c *gin.Context) {
	body := CreateGameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	confirmation, err := gh.gameService.createGame(c.Request.Context(), utils.BearerToken(c), body)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

func (gh *gameHandler) joinGame(c *gin.Context) {
	body := JoinGameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	creds, err := gh.gameService.joinGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"), body)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, creds)
}

func (gh *gameHandler) leaveGame(c *gin.Context) {
	err := gh.gameService.leaveGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.Status(http.StatusNoContent)
}

func (gh *gameHandler) startGame(c *gin.Context) {
	body := StartGameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	times, err := gh.gameService.startGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"), body)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, times)
}

func (gh *gameHandler) stopGame(c *gin.Context) {
	body := StopGameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	times, err := gh.gameService.stopGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"), body.FromSchedule)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, times)
}

func (gh *gameHandler) restartGame(c *gin.Context) {
	confirmation, err := gh.gameService.restartGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

func (gh *gameHandler) deleteGame(c *gin.Context) {
	game, err := gh.gameService.deleteGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (gh *gameHandler) getGame(c *gin.Context) {
	game, err := gh.gameService.getGame(c.Request.Context(), utils.BearerToken(c), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (gh *gameHandler) getPublicGame(c *gin.Context) {
	game, err := gh.gameService.getPublicGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (gh *gameHandler) listPublicGames(c *gin.Context) {
	games, err := gh.gameService.listPublicGames(c.Request.Context())
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, games)
}
