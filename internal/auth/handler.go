package auth

import (
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		session, err := svc.Register(c.UserContext(), OriginFrom(c), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	}
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		session, err := svc.Login(c.UserContext(), OriginFrom(c), body)
		if err != nil {
			return err
		}
		return c.JSON(session)
	}
}

// POST /api/auth/refresh
func RefreshHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		session, err := svc.Refresh(c.UserContext(), body.RefreshToken)
		if err != nil {
			return err
		}
		return c.JSON(session)
	}
}

// GET /api/auth/profile
func ProfileHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := IdentityFrom(c)
		if err != nil {
			return err
		}

		user, err := svc.Profile(c.UserContext(), ident)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// PUT /api/auth/profile
func UpdateProfileHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}

		var body ProfileInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		user, err := svc.UpdateProfile(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}
