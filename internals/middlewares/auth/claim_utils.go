// internals/middlewares/auth/claim_utils.go
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", errors.New("unauthorized - No token provided")
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errors.New("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errors.New("unauthorized - Empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return errors.New("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return errors.New("invalid exp format")
		}
		expUnix = n
	default:
		return fmt.Errorf("invalid exp type %T", expVal)
	}

	if time.Now().After(time.Unix(expUnix, 0).Add(skew)) {
		return errors.New("token expired")
	}
	return nil
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

func storeClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims) {
	c.Locals(LocUserRole, claimString(claims, "role"))
	if id := claimString(claims, "id"); id != "" {
		c.Locals(LocUserID, id)
	}
	if name := claimString(claims, "user_name"); name != "" {
		c.Locals(LocUserName, name)
	}
	// department claims are stored canonical so scope checks compare like with like
	if dept := claimString(claims, "department"); dept != "" {
		c.Locals(LocDepartment, normalizer.Normalize(dept))
	}
}

// Actor names the caller for audit entries.
func Actor(c *fiber.Ctx) string {
	if name, ok := c.Locals(LocUserName).(string); ok && name != "" {
		return name
	}
	if id, ok := c.Locals(LocUserID).(string); ok && id != "" {
		return id
	}
	return "anonymous"
}

// TenantKey returns the key resolved by DepartmentScope.
func TenantKey(c *fiber.Ctx) string {
	k, _ := c.Locals(LocTenantKey).(string)
	return k
}
