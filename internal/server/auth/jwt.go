// Package auth mints and parses session tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is what a session token carries. Role is a snapshot taken
// at login and is never trusted for authorization; Epoch ("sv") must equal
// the account's stored session epoch for the token to be honoured.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role  models.Role `json:"role"`
	Epoch int64       `json:"sv"`
}

// AccountID returns the subject of the token.
func (c *SessionClaims) AccountID() string {
	return c.Subject
}

// GenerateToken signs an HS256 session token for the account.
func GenerateToken(account *models.Account, epoch int64, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Role:  account.Role,
		Epoch: epoch,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry of tokenString and returns
// its claims. Expired tokens yield common.ErrTokenExpired; any other
// problem yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
