// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

// Locals keys set by AuthMiddleware.
const (
	LocUserID     = "user_id"
	LocUserRole   = "userRole"
	LocUserName   = "user_name"
	LocDepartment = "department"
	LocTenantKey  = "tenantKey"
)

// AuthMiddleware verifies an HS256 bearer token and stores its claims in Locals.
func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	log = logger.OrNop(log).Named("auth")
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if secret == "" {
			log.Error("JWT_SECRET is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "unexpected signing method")
			}
			return []byte(secret), nil
		}); err != nil {
			log.Debug("token parse failed", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			log.Debug("token expiry check failed", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		if claimString(claims, "role") == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Missing role")
		}
		storeClaimsToLocals(c, claims)
		return c.Next()
	}
}
