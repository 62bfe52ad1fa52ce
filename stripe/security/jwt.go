package security

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
)

type EncodedJwt string
type SigningKey []byte

// AccessMode scopes a block access token to one kind of operation.
type AccessMode string

const (
	AccessModeRead  AccessMode = "READ"
	AccessModeWrite AccessMode = "WRITE"
)

type BlockAccessClaims struct {
	BlockId string     `json:"blk"`
	Mode    AccessMode `json:"mode"`
	jwt.RegisteredClaims
}

// GenBlockAccessToken signs a short lived token scoped to one internal block
// and one access mode. An empty signing key disables tokens.
func GenBlockAccessToken(signingKey SigningKey, blockId string, mode AccessMode, expiresAfter time.Duration) EncodedJwt {
	if len(signingKey) == 0 {
		return ""
	}

	claims := BlockAccessClaims{
		BlockId: blockId,
		Mode:    mode,
	}
	if expiresAfter != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(expiresAfter))
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, e := t.SignedString([]byte(signingKey))
	if e != nil {
		glog.V(0).Infof("Failed to sign claims %+v: %v", t.Claims, e)
		return ""
	}
	return EncodedJwt(encoded)
}

func DecodeBlockAccessToken(signingKey SigningKey, tokenString EncodedJwt) (token *jwt.Token, err error) {
	// checks exp, nbf
	return jwt.ParseWithClaims(string(tokenString), &BlockAccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unknown token method")
		}
		return []byte(signingKey), nil
	})
}

// VerifyBlockAccessToken checks that the token grants mode on blockId.
// With an empty signing key every token is accepted.
func VerifyBlockAccessToken(signingKey SigningKey, tokenString EncodedJwt, blockId string, mode AccessMode) error {
	if len(signingKey) == 0 {
		return nil
	}
	token, err := DecodeBlockAccessToken(signingKey, tokenString)
	if err != nil {
		return fmt.Errorf("decode access token: %v", err)
	}
	claims, ok := token.Claims.(*BlockAccessClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid access token")
	}
	if claims.BlockId != blockId {
		return fmt.Errorf("access token is for block %s, not %s", claims.BlockId, blockId)
	}
	if claims.Mode != mode {
		return fmt.Errorf("access token mode %s does not grant %s", claims.Mode, mode)
	}
	return nil
}
