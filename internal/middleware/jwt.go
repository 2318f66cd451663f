package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"farmtally/internal/config"
	"farmtally/internal/models"
)

// Context keys set by RequireAuth.
const (
	CtxUserID         = "user_id"
	CtxRole           = "role"
	CtxOrganizationID = "organization_id"
	CtxClaims         = "claims"
)

// Claims is the access-token payload.
type Claims struct {
	UserID         uint        `json:"userId"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	OrganizationID *uint       `json:"organizationId"`
	jwt.RegisteredClaims
}

// GenerateToken signs an access token for user valid for the configured TTL.
func GenerateToken(user *models.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "farmtally",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.App.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.App.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken verifies signature and expiry and returns the claims.
func ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.App.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return tok, tok != ""
}

// Authenticate validates tokenStr and checks it has not been revoked.
func Authenticate(c *gin.Context, tokenStr string) (*Claims, int, string) {
	claims, err := ValidateToken(tokenStr)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}
	if config.Tokens != nil {
		revoked, err := config.Tokens.IsRevoked(c.Request.Context(), claims.ID, claims.UserID)
		if err != nil {
			logrus.WithError(err).Error("token blacklist lookup failed")
			return nil, http.StatusInternalServerError, "Could not verify token"
		}
		if revoked {
			return nil, http.StatusUnauthorized, "Token has been revoked"
		}
	}
	return claims, 0, ""
}

// RequireAuth ensures a valid, unrevoked JWT is present
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticateRequest(c) {
			c.Next()
		}
	}
}

// RequireRole ensures the JWT is valid and the user holds one of roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, done := c.Get(CtxClaims); !done && !authenticateRequest(c) {
			return
		}

		role, _ := c.Get(CtxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

func authenticateRequest(c *gin.Context) bool {
	tokenString, ok := BearerToken(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return false
	}

	claims, status, msg := Authenticate(c, tokenString)
	if claims == nil {
		c.AbortWithStatusJSON(status, gin.H{"error": msg})
		return false
	}

	// Store claims in context for downstream handlers
	c.Set(CtxClaims, claims)
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxRole, claims.Role)
	if claims.OrganizationID != nil {
		c.Set(CtxOrganizationID, *claims.OrganizationID)
	}
	return true
}

// CurrentClaims returns the claims stored by RequireAuth.
func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
