package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
)

type authHandler struct {
	tokens *TokenService
}

func RegisterRoutes(rg *gin.RouterGroup, tokens *TokenService) {
	handler := &authHandler{tokens: tokens}

	routes := rg.Group("/auth")
	routes.POST("/refresh", handler.refreshToken)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (ah *authHandler) refreshToken(c *gin.Context) {
	inboundReqBody := RefreshTokenRequest{}
	if err := c.BindJSON(&inboundReqBody); err != nil {
		log.Info().
			Err(err).
			Msg("Error parsing refresh token request body")

		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	if strings.TrimSpace(inboundReqBody.RefreshToken) == "" {
		c.JSON(http.StatusBadRequest, reject.NewProblem().
			WithTitle("Empty refresh token in request").
			WithStatus(http.StatusBadRequest).
			WithCode(reject.CodeUnauthorized).
			Build())
		return
	}

	creds, pwt := ah.tokens.Refresh(inboundReqBody.RefreshToken)
	if pwt != nil {
		log.Info().
			Err(pwt.Cause).
			Msg("Failed to exchange refresh token for a new token pair")

		c.JSON(pwt.Problem.Status, pwt.Problem)
		return
	}

	c.JSON(http.StatusOK, creds)
}
