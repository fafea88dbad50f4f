package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 3 * time.Hour
)

// Identity is the decoded content of a credential. GameId and Role are empty
// on a bare (unscoped) identity.
type Identity struct {
	UserId   string         `json:"userid"`
	Username string         `json:"username"`
	GameId   string         `json:"gameId,omitempty"`
	Role     model.GameRole `json:"role,omitempty"`
}

// Credentials is an access/refresh token pair carrying the same claims,
// signed with independent keys and expiries.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type gameClaims struct {
	jwt.RegisteredClaims
	UserId   string `json:"userid"`
	Username string `json:"username"`
	GameId   string `json:"gameId,omitempty"`
	Role     string `json:"role,omitempty"`
}

type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	clock      clock.Clock
}

func NewTokenService(accessKey, refreshKey []byte, clk clock.Clock) *TokenService {
	return &TokenService{accessKey: accessKey, refreshKey: refreshKey, clock: clk}
}

// Issue signs a fresh credential pair for the identity as given.
func (ts *TokenService) Issue(identity Identity) (Credentials, error) {
	access, err := ts.sign(identity, ts.accessKey, AccessTokenTTL)
	if err != nil {
		return Credentials{}, err
	}
	refresh, err := ts.sign(identity, ts.refreshKey, RefreshTokenTTL)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// Upgrade scopes a credential pair to one game and role. Only userid and
// username carry over from the input identity; any game scope it held is
// discarded rather than inherited.
func (ts *TokenService) Upgrade(identity Identity, gameId string, role model.GameRole) (Credentials, error) {
	scoped := Identity{
		UserId:   identity.UserId,
		Username: identity.Username,
		GameId:   gameId,
		Role:     role,
	}
	return ts.Issue(scoped)
}

// VerifyBare validates signature and expiry of an access credential without
// any game-scope requirement.
func (ts *TokenService) VerifyBare(raw string) (Identity, *reject.ProblemWithTrace) {
	identity, err := ts.parse(raw, ts.accessKey)
	if err != nil {
		return Identity{}, reject.UnauthorizedProblem("invalid or expired access credential").WithTrace(err)
	}
	return identity, nil
}

// Verify validates an access credential against a target game and an allowed
// privilege set. An empty allowed set accepts any role scoped to the game.
func (ts *TokenService) Verify(raw string, gameId string, allowed ...model.GameRole) (Identity, *reject.ProblemWithTrace) {
	identity, err := ts.parse(raw, ts.accessKey)
	if err != nil {
		return Identity{}, reject.UnauthorizedProblem("invalid or expired access credential").WithTrace(err)
	}
	if identity.GameId != gameId {
		err := fmt.Errorf("credential scoped to game %q, not %q", identity.GameId, gameId)
		return Identity{}, reject.ForbiddenProblem("credential is not scoped to this game").WithTrace(err)
	}
	if len(allowed) == 0 {
		return identity, nil
	}
	for _, role := range allowed {
		if identity.Role == role {
			return identity, nil
		}
	}
	err = fmt.Errorf("role %q not in allowed set %v", identity.Role, allowed)
	return Identity{}, reject.ForbiddenProblem("credential role lacks the required privilege").WithTrace(err)
}

// Refresh exchanges a valid refresh credential for a new pair with identical
// claims.
func (ts *TokenService) Refresh(raw string) (Credentials, *reject.ProblemWithTrace) {
	identity, err := ts.parse(raw, ts.refreshKey)
	if err != nil {
		return Credentials{}, reject.UnauthorizedProblem("invalid or expired refresh credential").WithTrace(err)
	}
	creds, err := ts.Issue(identity)
	if err != nil {
		return Credentials{}, reject.UnexpectedProblem(err).WithTrace(err)
	}
	return creds, nil
}

func (ts *TokenService) sign(identity Identity, key []byte, ttl time.Duration) (string, error) {
	now := ts.clock.Now()
	claims := gameClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserId:   identity.UserId,
		Username: identity.Username,
		GameId:   identity.GameId,
		Role:     string(identity.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (ts *TokenService) parse(raw string, key []byte) (Identity, error) {
	claims := &gameClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.clock.Now))
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserId:   claims.UserId,
		Username: claims.Username,
		GameId:   claims.GameId,
		Role:     model.GameRole(claims.Role),
	}, nil
}
