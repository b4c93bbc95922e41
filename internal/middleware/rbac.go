package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
// Ownership is checked later by the services.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := grading.NormalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalUserRole).(string)
		if _, ok := allowed[grading.NormalizeRole(role)]; !ok {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", &utils.ErrorBody{Kind: string(grading.KindForbidden)})
		}
		return c.Next()
	}
}
