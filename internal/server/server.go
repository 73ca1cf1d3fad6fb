// Package server assembles the fiber application: middleware, the error
// envelope and the route table.
package server

import (
	"strings"

	"propertytrack/internal/audit"
	"propertytrack/internal/auth"
	"propertytrack/internal/authz"
	"propertytrack/internal/config"
	"propertytrack/internal/inventory"
	"propertytrack/internal/logging"
	"propertytrack/internal/maintenance"
	"propertytrack/internal/models"
	"propertytrack/internal/property"
	"propertytrack/internal/room"
	"propertytrack/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const bodyLimit = 1 << 20

// New builds the application. rec receives every audit entry; in production
// it is the async *audit.Writer. The caller owns policy and closes it.
func New(cfg *config.Config, log *logrus.Logger, db *gorm.DB, rec auth.Recorder, policy *authz.Policy) *fiber.App {
	httpLog := logging.Component(log, "http")

	app := fiber.New(fiber.Config{
		AppName:               "propertytrack",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(httpLog, cfg.IsDevelopment()),
	})

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: auth.RequestIDKey,
	}))
	app.Use(requestLogger(httpLog))
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: false,
	}))

	tokens := auth.NewTokenIssuer(cfg)

	h := handlers{
		auth:        auth.NewService(db, tokens, rec, cfg.BcryptCost, logging.Component(log, "auth")),
		property:    property.NewService(db, policy, rec, logging.Component(log, "property")),
		room:        room.NewService(db, policy, rec, logging.Component(log, "room")),
		inventory:   inventory.NewService(db, policy, rec, logging.Component(log, "inventory")),
		maintenance: maintenance.NewService(db, policy, rec, logging.Component(log, "maintenance")),
		users:       users.NewService(db, rec, cfg.BcryptCost, logging.Component(log, "users")),
	}

	registerRoutes(app, db, tokens, h)
	return app
}

type handlers struct {
	auth        *auth.Service
	property    *property.Service
	room        *room.Service
	inventory   *inventory.Service
	maintenance *maintenance.Service
	users       *users.Service
}

func registerRoutes(app *fiber.App, db *gorm.DB, tokens *auth.TokenIssuer, h handlers) {
	app.Get("/health", healthHandler)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(h.auth))
	api.Post("/auth/login", auth.LoginHandler(h.auth))
	api.Post("/auth/refresh", auth.RefreshHandler(h.auth))

	// Protected, one group per resource prefix; unknown /api paths stay 404.
	authed := auth.JWTMiddleware(tokens)
	owners := auth.RequireRole(models.RoleHost, models.RoleAdmin)
	adminOnly := auth.RequireRole(models.RoleAdmin)

	profile := api.Group("/auth/profile", authed)
	profile.Get("", auth.ProfileHandler(h.auth))
	profile.Put("", auth.UpdateProfileHandler(h.auth))

	// Properties, plus the rooms, maintenance and export nested under them
	properties := api.Group("/properties", authed)
	properties.Get("", property.ListPropertiesHandler(h.property))
	properties.Post("", owners, property.CreatePropertyHandler(h.property))
	properties.Get("/:id/stats", property.PropertyStatsHandler(h.property))
	properties.Get("/:id", property.GetPropertyHandler(h.property))
	properties.Put("/:id", property.UpdatePropertyHandler(h.property))
	properties.Delete("/:id", property.DeletePropertyHandler(h.property))
	properties.Get("/:propertyId/rooms", room.ListRoomsHandler(h.room))
	properties.Post("/:propertyId/rooms", owners, room.CreateRoomHandler(h.room))
	properties.Get("/:propertyId/inventory/export", inventory.ExportItemsHandler(h.inventory))
	properties.Get("/:propertyId/maintenance", maintenance.ListTasksHandler(h.maintenance))
	properties.Post("/:propertyId/maintenance", maintenance.CreateTaskHandler(h.maintenance))

	// Rooms and their inventory
	rooms := api.Group("/rooms", authed)
	rooms.Get("/:id", room.GetRoomHandler(h.room))
	rooms.Put("/:id", room.UpdateRoomHandler(h.room))
	rooms.Delete("/:id", room.DeleteRoomHandler(h.room))
	rooms.Get("/:roomId/inventory", inventory.ListItemsHandler(h.inventory))
	rooms.Post("/:roomId/inventory", inventory.CreateItemHandler(h.inventory))
	rooms.Post("/:roomId/inventory/bulk", inventory.BulkCreateItemsHandler(h.inventory))
	rooms.Put("/:roomId/inventory/bulk-status", inventory.BulkStatusHandler(h.inventory))
	rooms.Post("/:roomId/inventory/import", inventory.ImportItemsHandler(h.inventory))

	items := api.Group("/inventory", authed)
	items.Get("/:id", inventory.GetItemHandler(h.inventory))
	items.Put("/:id", inventory.UpdateItemHandler(h.inventory))
	items.Delete("/:id", inventory.DeleteItemHandler(h.inventory))

	tasks := api.Group("/maintenance", authed)
	tasks.Get("/:id", maintenance.GetTaskHandler(h.maintenance))
	tasks.Put("/:id", maintenance.UpdateTaskHandler(h.maintenance))
	tasks.Delete("/:id", maintenance.DeleteTaskHandler(h.maintenance))

	// Admin
	userRoutes := api.Group("/users", authed, adminOnly)
	userRoutes.Get("", users.ListUsersHandler(h.users))
	userRoutes.Post("", users.CreateUserHandler(h.users))
	userRoutes.Get("/:id", users.GetUserHandler(h.users))
	userRoutes.Put("/:id", users.UpdateUserHandler(h.users))
	userRoutes.Delete("/:id", users.DeleteUserHandler(h.users))

	api.Get("/audit-logs", authed, adminOnly, audit.ListAuditLogsHandler(db))
}
