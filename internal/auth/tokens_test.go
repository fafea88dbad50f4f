package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/model"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/reject"
)

func newTestService() (*TokenService, *clock.Mock) {
	clk := clock.NewMock(time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewTokenService([]byte("access-test-key"), []byte("refresh-test-key"), clk), clk
}

func TestIssueAndVerifyBare(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Issue(Identity{UserId: "u1", Username: "alice"})
	require.NoError(t, err)

	identity, pwt := ts.VerifyBare(creds.AccessToken)
	require.Nil(t, pwt)
	assert.Equal(t, "u1", identity.UserId)
	assert.Equal(t, "alice", identity.Username)
	assert.Empty(t, identity.GameId)
	assert.Empty(t, identity.Role)
}

func TestUpgradeScopesToGameAndRole(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Upgrade(Identity{UserId: "u1", Username: "alice"}, "g1", model.RoleHost)
	require.NoError(t, err)

	identity, pwt := ts.Verify(creds.AccessToken, "g1", model.RoleHost)
	require.Nil(t, pwt)
	assert.Equal(t, "g1", identity.GameId)
	assert.Equal(t, model.RoleHost, identity.Role)
}

func TestUpgradeDiscardsPriorScope(t *testing.T) {
	ts, _ := newTestService()

	scoped := Identity{UserId: "u1", Username: "alice", GameId: "old-game", Role: model.RolePlayer}
	creds, err := ts.Upgrade(scoped, "new-game", model.RoleHost)
	require.NoError(t, err)

	identity, pwt := ts.Verify(creds.AccessToken, "new-game", model.RoleHost)
	require.Nil(t, pwt)
	assert.Equal(t, "new-game", identity.GameId)

	_, pwt = ts.Verify(creds.AccessToken, "old-game")
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeForbidden, pwt.Problem.Code)
}

func TestVerifyWrongGameForbidden(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Upgrade(Identity{UserId: "u1", Username: "alice"}, "g1", model.RolePlayer)
	require.NoError(t, err)

	_, pwt := ts.Verify(creds.AccessToken, "g2", model.RolePlayer)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeForbidden, pwt.Problem.Code)
}

func TestVerifyRoleNotAllowed(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Upgrade(Identity{UserId: "u1", Username: "alice"}, "g1", model.RolePlayer)
	require.NoError(t, err)

	_, pwt := ts.Verify(creds.AccessToken, "g1", model.RoleHost, model.RoleAdmin)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeForbidden, pwt.Problem.Code)
}

func TestVerifyAnyRoleWhenUnrestricted(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Upgrade(Identity{UserId: "u1", Username: "alice"}, "g1", model.RolePlayer)
	require.NoError(t, err)

	_, pwt := ts.Verify(creds.AccessToken, "g1")
	assert.Nil(t, pwt)
}

func TestVerifyGarbageUnauthorized(t *testing.T) {
	ts, _ := newTestService()

	_, pwt := ts.VerifyBare("not-a-jwt")
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeUnauthorized, pwt.Problem.Code)
}

func TestVerifyExpiredAccessToken(t *testing.T) {
	ts, clk := newTestService()

	creds, err := ts.Issue(Identity{UserId: "u1", Username: "alice"})
	require.NoError(t, err)

	clk.Advance(AccessTokenTTL + time.Minute)

	_, pwt := ts.VerifyBare(creds.AccessToken)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeUnauthorized, pwt.Problem.Code)
}

func TestRefreshOutlivesAccessToken(t *testing.T) {
	ts, clk := newTestService()

	creds, err := ts.Upgrade(Identity{UserId: "u1", Username: "alice"}, "g1", model.RoleAdmin)
	require.NoError(t, err)

	clk.Advance(AccessTokenTTL + time.Minute)

	fresh, pwt := ts.Refresh(creds.RefreshToken)
	require.Nil(t, pwt)

	identity, pwt := ts.Verify(fresh.AccessToken, "g1", model.RoleAdmin)
	require.Nil(t, pwt)
	assert.Equal(t, "alice", identity.Username)
}

func TestRefreshExpired(t *testing.T) {
	ts, clk := newTestService()

	creds, err := ts.Issue(Identity{UserId: "u1", Username: "alice"})
	require.NoError(t, err)

	clk.Advance(RefreshTokenTTL + time.Minute)

	_, pwt := ts.Refresh(creds.RefreshToken)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeUnauthorized, pwt.Problem.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ts, _ := newTestService()

	creds, err := ts.Issue(Identity{UserId: "u1", Username: "alice"})
	require.NoError(t, err)

	// The two token kinds are signed with independent keys.
	_, pwt := ts.Refresh(creds.AccessToken)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeUnauthorized, pwt.Problem.Code)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	ts, clk := newTestService()
	other := NewTokenService([]byte("different-key"), []byte("refresh-test-key"), clk)

	creds, err := other.Issue(Identity{UserId: "u1", Username: "alice"})
	require.NoError(t, err)

	_, pwt := ts.VerifyBare(creds.AccessToken)
	require.NotNil(t, pwt)
	assert.Equal(t, reject.CodeUnauthorized, pwt.Problem.Code)
}
