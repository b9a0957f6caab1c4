package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

// OnlyRoles lets the request through when userRole is one of roles.
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocUserRole).(string)
		if !ok || role == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		if customMessage == "" {
			customMessage = "Forbidden: you are not authorized to access this resource"
		}
		return helper.JsonError(c, fiber.StatusForbidden, customMessage)
	}
}

func RequireSuperAdmin() fiber.Handler {
	return OnlyRoles("super admin only", RoleSuperAdmin)
}
