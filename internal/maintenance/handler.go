package maintenance

import (
	"propertytrack/internal/auth"
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/properties/:propertyId/maintenance?status=&priority=
func ListTasksHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		propertyID, err := validation.ParamID(c, "propertyId")
		if err != nil {
			return err
		}

		tasks, err := svc.List(c.UserContext(), ident, propertyID, ListFilter{
			Status:   c.Query("status"),
			Priority: c.Query("priority"),
		})
		if err != nil {
			return err
		}
		return c.JSON(tasks)
	}
}

// POST /api/properties/:propertyId/maintenance
func CreateTaskHandler(svc *Service) fiber.Handler {
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

		task, err := svc.Create(c.UserContext(), actor, propertyID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	}
}

// GET /api/maintenance/:id
func GetTaskHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		task, err := svc.Get(c.UserContext(), ident, id)
		if err != nil {
			return err
		}
		return c.JSON(task)
	}
}

// PUT /api/maintenance/:id
func UpdateTaskHandler(svc *Service) fiber.Handler {
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

		task, err := svc.Update(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(task)
	}
}

// DELETE /api/maintenance/:id
func DeleteTaskHandler(svc *Service) fiber.Handler {
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
		return c.JSON(fiber.Map{"message": "maintenance task deleted"})
	}
}
