package room

import (
	"propertytrack/internal/auth"
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/properties/:propertyId/rooms?includeInactive=
func ListRoomsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		propertyID, err := validation.ParamID(c, "propertyId")
		if err != nil {
			return err
		}

		rooms, err := svc.List(c.UserContext(), ident, propertyID, c.QueryBool("includeInactive"))
		if err != nil {
			return err
		}
		return c.JSON(rooms)
	}
}

// POST /api/properties/:propertyId/rooms
func CreateRoomHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		propertyID, err := validation.ParamID(c, "propertyId")
		if err != nil {
			return err
		}

		var body CreateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		room, err := svc.Create(c.UserContext(), actor, propertyID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(room)
	}
}

// GET /api/rooms/:id
func GetRoomHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		room, err := svc.Get(c.UserContext(), ident, id)
		if err != nil {
			return err
		}
		return c.JSON(room)
	}
}

// PUT /api/rooms/:id
func UpdateRoomHandler(svc *Service) fiber.Handler {
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

		room, err := svc.Update(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(room)
	}
}

// DELETE /api/rooms/:id
func DeleteRoomHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		res, err := svc.Delete(c.UserContext(), actor, id)
		if err != nil {
			return err
		}

		msg := "room deleted"
		if res.Deactivated {
			msg = "room has inventory and was deactivated"
		}
		return c.JSON(fiber.Map{"message": msg, "deleted": res.Deleted, "deactivated": res.Deactivated})
	}
}
