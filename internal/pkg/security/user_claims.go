package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims Token 携带的业务身份
type UserClaims struct {
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}
