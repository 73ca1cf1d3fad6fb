package auth

import (
	"strings"

	"propertytrack/internal/apperr"
	"propertytrack/internal/audit"
	"propertytrack/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequestIDKey is the fiber locals key the requestid middleware writes to.
const RequestIDKey = "requestid"

type identityKey struct{}

// Identity is the authenticated caller decoded from the access token.
type Identity struct {
	UserID uint
	Email  string
	Role   models.UserRole
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Actor is an Identity plus the request origin, passed explicitly into
// every mutating service call.
type Actor struct {
	Identity
	IP        string
	UserAgent string
	RequestID string
}

// Audit builds an audit entry attributed to the actor.
func (a Actor) Audit(action models.AuditAction, entityType string, entityID uint, details map[string]any) audit.Entry {
	return audit.Entry{
		UserID:     a.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		IP:         a.IP,
		UserAgent:  a.UserAgent,
		RequestID:  a.RequestID,
	}
}

func JWTMiddleware(tokens *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthenticated("authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return apperr.Unauthenticated("authorization header must be 'Bearer <token>'")
		}

		ident, err := tokens.ParseAccess(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperr.Unauthenticated("invalid or expired token")
		}

		c.Locals(identityKey{}, ident)
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := IdentityFrom(c)
		if err != nil {
			return err
		}
		for _, r := range allowedRoles {
			if r == ident.Role {
				return c.Next()
			}
		}
		return apperr.Forbidden("you do not have permission to perform this action")
	}
}

// IdentityFrom returns the identity stored by JWTMiddleware.
func IdentityFrom(c *fiber.Ctx) (Identity, error) {
	ident, ok := c.Locals(identityKey{}).(Identity)
	if !ok || ident.UserID == 0 {
		return Identity{}, apperr.Unauthenticated("authentication required")
	}
	return ident, nil
}

// ActorFrom returns the identity together with the request origin.
func ActorFrom(c *fiber.Ctx) (Actor, error) {
	ident, err := IdentityFrom(c)
	if err != nil {
		return Actor{}, err
	}
	a := OriginFrom(c)
	a.Identity = ident
	return a, nil
}

// OriginFrom captures IP, user agent and request id for unauthenticated
// endpoints such as login.
func OriginFrom(c *fiber.Ctx) Actor {
	rid, _ := c.Locals(RequestIDKey).(string)
	return Actor{
		IP:        c.IP(),
		UserAgent: string(c.Request().Header.UserAgent()),
		RequestID: rid,
	}
}
