package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "giftchain.backend/internal/domain/errors"
	"giftchain.backend/pkg/jwt"
	"giftchain.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// WalletKey is the gin context key for the authenticated wallet address
	WalletKey = "wallet"
	// ChainKey is the gin context key for the chain the wallet signed in with
	ChainKey = "walletChain"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Debug(c.Request.Context(), "Authorization header is missing", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := validator.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			logger.Warn(c.Request.Context(), "Bearer token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			if errors.Is(err, jwt.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		setWallet(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the wallet when a valid bearer token is present and
// lets anonymous requests through. A present but invalid token is still rejected.
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	required := AuthMiddleware(validator)
	return func(c *gin.Context) {
		if c.GetHeader(AuthorizationHeader) == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// GetWallet returns the authenticated wallet address, if any
func GetWallet(c *gin.Context) (string, bool) {
	wallet := c.GetString(WalletKey)
	return wallet, wallet != ""
}

func setWallet(c *gin.Context, claims *jwt.Claims) {
	c.Set(WalletKey, claims.WalletAddress)
	c.Set(ChainKey, claims.Chain)

	ctx := context.WithValue(c.Request.Context(), logger.WalletKey, claims.WalletAddress)
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    domainerrors.CodeUnauthorized,
		"message": message,
	})
}
