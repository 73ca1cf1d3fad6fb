package users

import (
	"propertytrack/internal/auth"
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/users?role=&includeInactive=&search=
func ListUsersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		users, err := svc.List(c.UserContext(), ListFilter{
			Role:            c.Query("role"),
			IncludeInactive: c.QueryBool("includeInactive"),
			Search:          c.Query("search"),
		})
		if err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// POST /api/users
func CreateUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		user, err := svc.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// GET /api/users/:id
func GetUserHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		user, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// PUT /api/users/:id
func UpdateUserHandler(svc *Service) fiber.Handler {
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

		user, err := svc.Update(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// DELETE /api/users/:id
func DeleteUserHandler(svc *Service) fiber.Handler {
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
		return c.JSON(fiber.Map{"message": "user deactivated"})
	}
}
