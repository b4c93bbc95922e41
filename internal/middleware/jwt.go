package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// Locals populated for authenticated requests.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// JWTProtected validates HMAC bearer tokens and stores the actor id and role in locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, role, err := ParseToken(strings.TrimSpace(authorization[len(bearer):]), secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRole, role)

		return c.Next()
	}
}

// ParseToken verifies tokenString and returns the actor it names. Tokens without a
// numeric subject or a role are rejected.
func ParseToken(tokenString, secret string) (uint, string, error) {
	if tokenString == "" {
		return 0, "", fmt.Errorf("empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	userID, ok := extractUserIDFromClaims(claims)
	if !ok {
		return 0, "", fmt.Errorf("token has no subject")
	}
	role := extractUserRoleFromClaims(claims)
	if role == "" {
		return 0, "", fmt.Errorf("token has no role")
	}

	return userID, role, nil
}

func extractUserIDFromClaims(claims jwt.MapClaims) (uint, bool) {
	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeUserID(value); err == nil && normalized > 0 {
				return normalized, true
			}
		}
	}
	return 0, false
}

func normalizeUserID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			if role := grading.NormalizeRole(v); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok {
					if role := grading.NormalizeRole(str); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}
