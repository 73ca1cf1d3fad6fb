package audit

import (
	"time"

	"propertytrack/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// GET /api/audit-logs?userId=&action=&entityType=&entityId=&from=&to=&limit=&offset=
//
// from and to take RFC 3339 timestamps or plain dates; a plain to date
// covers the whole day.
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			UserID:     uint(c.QueryInt("userId")),
			Action:     c.Query("action"),
			EntityType: c.Query("entityType"),
			EntityID:   uint(c.QueryInt("entityId")),
			Limit:      c.QueryInt("limit", 50),
			Offset:     c.QueryInt("offset"),
		}

		var fields []apperr.FieldError
		var err error
		if f.From, err = ParseBound(c.Query("from"), false); err != nil {
			fields = append(fields, apperr.FieldError{Field: "from", Message: "must be a date or RFC 3339 timestamp"})
		}
		if f.To, err = ParseBound(c.Query("to"), true); err != nil {
			fields = append(fields, apperr.FieldError{Field: "to", Message: "must be a date or RFC 3339 timestamp"})
		}
		if len(fields) > 0 {
			return apperr.Validation("invalid query", fields...)
		}
		if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
			return apperr.Validation("invalid query", apperr.FieldError{Field: "to", Message: "must not be before from"})
		}

		res, err := List(c.UserContext(), db, f)
		if err != nil {
			return apperr.Internal("could not list audit logs", err)
		}
		return c.JSON(res)
	}
}

// ParseBound reads a range bound. An empty string is the zero time. A plain
// date used as an upper bound extends to the last instant of that day.
func ParseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
