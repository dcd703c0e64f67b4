package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse_RoundTrip(t *testing.T) {
	pair, err := Issue("station-7", "teacher", "presence-engine", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := Parse(pair.AccessToken, "secret", "presence-engine")
	require.NoError(t, err)
	assert.Equal(t, "station-7", claims.Subject)
	assert.Equal(t, "teacher", claims.StationKind)
}

func TestParse_RejectsWrongKeyAndIssuer(t *testing.T) {
	pair, err := Issue("station-7", "staff", "presence-engine", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-secret", "presence-engine")
	assert.Error(t, err)

	_, err = Parse(pair.AccessToken, "secret", "someone-else")
	assert.Error(t, err)
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	pair, err := Issue("station-7", "staff", "presence-engine", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "presence-engine")
	assert.Error(t, err)
}
