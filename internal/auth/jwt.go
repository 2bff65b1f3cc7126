package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/suPer8Hu/echocare/internal/common"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims identify a user and one login session (the jti).
type Claims struct {
	UserID  uint64
	TokenID string
}

// SignJWT issues an HS256 token for userID with a fresh session id.
func SignJWT(userID uint64, secret string, ttl time.Duration) (token string, tokenID string, err error) {
	tokenID, err = common.NewULID()
	if err != nil {
		return "", "", err
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}

func ParseJWT(token, secret string) (Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(rc.Subject, 10, 64)
	if err != nil || rc.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: uid, TokenID: rc.ID}, nil
}
