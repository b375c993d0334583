package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/Soumabha100/X-clone-backend/pkg/cache"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenCookie 登录后写入的 httpOnly cookie 名称
	TokenCookie = "token"

	userIDKey   = "user_id"
	usernameKey = "username"
)

type JWTConfig struct {
	Secret string
	// Sessions 为空时不检查吊销
	Sessions *cache.SessionStore
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken 生成 HS256 签名的令牌
func GenerateToken(userID, username, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewJWTAuth 从 Authorization 头或 token cookie 读取令牌。
// 账号删除后，签发时间不晚于吊销时间的令牌全部失效。
func NewJWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abortWithError(c, apperr.Unauthenticated("authentication required"))
			return
		}

		claims, err := ParseToken(tokenString, cfg.Secret)
		if err != nil {
			abortWithError(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abortWithError(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		if cfg.Sessions != nil {
			revokedAt, revoked, err := cfg.Sessions.RevokedAt(c.Request.Context(), userID)
			if err != nil {
				abortWithError(c, apperr.Internal("failed to check session", err))
				return
			}
			if revoked && (claims.IssuedAt == nil || !claims.IssuedAt.Time.After(revokedAt)) {
				abortWithError(c, apperr.Unauthenticated("session has been revoked"))
				return
			}
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// GetUserID 未认证时返回空字符串
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
		"success": false,
		"error":   apperr.PublicMessage(err),
		"code":    apperr.KindOf(err),
	})
}
