package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"artprint-backend/internal/config"
	"artprint-backend/internal/models"
)

const (
	// AdminSubjectKey holds the authenticated admin subject ("token" for the
	// static token, else the JWT sub claim).
	AdminSubjectKey = "admin_subject"

	adminRole = "admin"
)

// AdminAuth guards admin routes. A bearer token is accepted when it equals
// ADMIN_TOKEN or is an HS256 JWT signed with ADMIN_JWT_SECRET carrying
// role=admin. With neither configured every request is refused with 503.
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.AdminEnabled() {
			abort(c, http.StatusServiceUnavailable, "admin_api_disabled", "admin API is not configured")
			return
		}

		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		if cfg.AdminToken != "" &&
			subtle.ConstantTimeCompare([]byte(tokenString), []byte(cfg.AdminToken)) == 1 {
			c.Set(AdminSubjectKey, "token")
			c.Next()
			return
		}

		if cfg.AdminJWTSecret != "" {
			if sub, err := verifyAdminJWT(tokenString, cfg.AdminJWTSecret); err == nil {
				c.Set(AdminSubjectKey, sub)
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "forbidden", "invalid admin credentials")
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func verifyAdminJWT(tokenString, secret string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}

	role, _ := claims["role"].(string)
	if role != adminRole {
		return "", jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims.GetSubject()
	return sub, nil
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{OK: false, Error: code, Message: message})
}
