package inventory

import (
	"bytes"
	"strconv"
	"strings"

	"propertytrack/internal/apperr"
	"propertytrack/internal/auth"
	"propertytrack/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/rooms/:roomId/inventory?status=&category=
func ListItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		roomID, err := validation.ParamID(c, "roomId")
		if err != nil {
			return err
		}

		items, err := svc.List(c.UserContext(), ident, roomID, ListFilter{
			Status:   c.Query("status"),
			Category: c.Query("category"),
		})
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// POST /api/rooms/:roomId/inventory
func CreateItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		roomID, err := validation.ParamID(c, "roomId")
		if err != nil {
			return err
		}

		var body CreateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		item, err := svc.Create(c.UserContext(), actor, roomID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// POST /api/rooms/:roomId/inventory/bulk
func BulkCreateItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		roomID, err := validation.ParamID(c, "roomId")
		if err != nil {
			return err
		}

		var body BulkCreateInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		items, err := svc.BulkCreate(c.UserContext(), actor, roomID, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"count": len(items), "items": items})
	}
}

// PUT /api/rooms/:roomId/inventory/bulk-status
func BulkStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		roomID, err := validation.ParamID(c, "roomId")
		if err != nil {
			return err
		}

		var body BulkStatusInput
		if err := validation.Parse(c, &body); err != nil {
			return err
		}

		res, err := svc.BulkStatus(c.UserContext(), actor, roomID, body)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// GET /api/inventory/:id
func GetItemHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		id, err := validation.ParamID(c, "id")
		if err != nil {
			return err
		}

		item, err := svc.Get(c.UserContext(), ident, id)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler(svc *Service) fiber.Handler {
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

		item, err := svc.Update(c.UserContext(), actor, id, body)
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// DELETE /api/inventory/:id
func DeleteItemHandler(svc *Service) fiber.Handler {
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
		return c.JSON(fiber.Map{"message": "inventory item deleted"})
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// POST /api/rooms/:roomId/inventory/import (multipart, field "file")
func ImportItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		roomID, err := validation.ParamID(c, "roomId")
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("file is required", apperr.FieldError{Field: "file", Message: "is required"})
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation("only .xlsx files can be imported", apperr.FieldError{Field: "file", Message: "must be an .xlsx file"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return apperr.Internal("could not open upload", err)
		}
		defer file.Close()

		items, err := svc.Import(c.UserContext(), actor, roomID, file)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"count": len(items), "items": items})
	}
}

// GET /api/properties/:propertyId/inventory/export
func ExportItemsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.IdentityFrom(c)
		if err != nil {
			return err
		}
		propertyID, err := validation.ParamID(c, "propertyId")
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := svc.Export(c.UserContext(), ident, propertyID, &buf); err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="inventory-`+strconv.FormatUint(uint64(propertyID), 10)+`.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
