package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockAccessTokenRoundTrip(t *testing.T) {
	key := SigningKey("secret")
	token := GenBlockAccessToken(key, "BP-1:blk_42_9", AccessModeRead, time.Minute)
	require.NotEmpty(t, token)

	assert.NoError(t, VerifyBlockAccessToken(key, token, "BP-1:blk_42_9", AccessModeRead))
}

func TestBlockAccessTokenScopes(t *testing.T) {
	key := SigningKey("secret")
	token := GenBlockAccessToken(key, "BP-1:blk_42_9", AccessModeRead, time.Minute)

	assert.Error(t, VerifyBlockAccessToken(key, token, "BP-1:blk_42_9", AccessModeWrite), "mode not granted")
	assert.Error(t, VerifyBlockAccessToken(key, token, "BP-1:blk_43_9", AccessModeRead), "wrong block")
	assert.Error(t, VerifyBlockAccessToken(SigningKey("other"), token, "BP-1:blk_42_9", AccessModeRead), "wrong key")
}

func TestExpiredTokenRejected(t *testing.T) {
	key := SigningKey("secret")
	token := GenBlockAccessToken(key, "BP-1:blk_1_1", AccessModeWrite, -time.Minute)
	assert.Error(t, VerifyBlockAccessToken(key, token, "BP-1:blk_1_1", AccessModeWrite))
}

func TestEmptySigningKeyDisablesTokens(t *testing.T) {
	assert.Empty(t, GenBlockAccessToken(nil, "BP-1:blk_1_1", AccessModeRead, time.Minute))
	assert.NoError(t, VerifyBlockAccessToken(nil, "", "BP-1:blk_1_1", AccessModeRead))
}
