package property

import (
	"propertytrack/internal/auth"
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/properties?ownerId=&includeInactive=
func ListPropertiesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}

		props, err := svc.List(c.UserContext(), ident, ListFilter{
			OwnerID:         uint(c.QueryInt("ownerId")),
			IncludeInactive: c.QueryBool("includeInactive"),
		})
		if err != nil {
			return err
		}
		return c.JSON(props)
	}
}

// POST /api/properties
func CreatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		prop, err := svc.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(prop)
	}
}

// GET /api/properties/:id
func GetPropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		prop, err := svc.Get(c.UserContext(), ident, id)
		if err != nil {
			return err
		}
		return c.JSON(prop)
	}
}

// PUT /api/properties/:id
func UpdatePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		var body UpdateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		prop, err := svc.Update(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(prop)
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "property deactivated"})
	}
}

// GET /api/properties/:id/stats
func PropertyStatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		st, err := svc.Stats(c.UserContext(), ident, id)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}
