package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"pizzastore/apperr"
	"pizzastore/policy"
)

const principalKey = "principal"

// Claims only carry the login; the role is re-read on every request.
type Claims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed JWT for a given login
func (t *Tokens) GenerateToken(login string) (string, error) {
	now := t.now()
	claims := Claims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token string and returns its claims.
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Login == "" {
		return nil, errors.New("token has no login")
	}
	return claims, nil
}

// PrincipalSource resolves a login to its current role.
type PrincipalSource interface {
	Principal(ctx context.Context, login string) (policy.Principal, error)
}

// AuthRequired validates the JWT and injects the caller's principal into context
func AuthRequired(tokens *Tokens, src PrincipalSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		p, err := src.Principal(c.Request.Context(), claims.Login)
		if err != nil {
			if apperr.KindOf(err) == apperr.Unauthenticated {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.Message(err)})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal error, please retry later"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequirePermission enforces that the caller's role grants op
func RequirePermission(op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Require(GetPrincipal(c), op); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Access denied. Your role may not " + op.String(),
			})
			return
		}
		c.Next()
	}
}

// GetPrincipal extracts the caller from context. It is the zero Principal
// on routes without AuthRequired.
func GetPrincipal(c *gin.Context) policy.Principal {
	val, ok := c.Get(principalKey)
	if !ok {
		return policy.Principal{}
	}
	p, _ := val.(policy.Principal)
	return p
}
