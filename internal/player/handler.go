package player

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/utils"
	"github.com/questline-hq/taskhunt-backend/internal/storage"
)

type playerHandler struct {
	playerService playerService
}

func RegisterRoutes(rg *gin.RouterGroup, store storage.Store, tokens *auth.TokenService) {
	handler := playerHandler{
		playerService: playerService{store: store, tokens: tokens},
	}

	routes := rg.Group("/game/:id")
	routes.GET("/player", handler.getOwnPlayer)
}

func (ph *playerHandler) getOwnPlayer(c *gin.Context) {
	player, err := ph.playerService.getOwnPlayer(c.Request.Context(), utils.BearerToken(c), c.Param("id"))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, player)
}
