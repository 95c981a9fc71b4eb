package routes

import (
	"classdesk_go/controllers"
	"classdesk_go/middleware"
	"classdesk_go/normalize"
	"classdesk_go/services"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the services the route table binds handlers to.
type Dependencies struct {
	ClassRequests *services.RecordService
	WebUsers      *services.RecordService
	ExamCenters   *services.ExamCenterService
	Health        *services.HealthService
	Activity      middleware.ActivityRecorder
	ActivityLogs  controllers.ActivityLogStore
	Avatars       controllers.AvatarUploader
	ProxyHosts    normalize.HostList
	Auth          fiber.Handler
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthController := controllers.NewHealthController(deps.Health)
	classRequestController := controllers.NewRecordController(deps.ClassRequests, nil)
	webUserController := controllers.NewRecordController(deps.WebUsers, deps.Avatars)
	examCenterController := controllers.NewExamCenterController(deps.ExamCenters, deps.Activity)
	photoProxyController := controllers.NewPhotoProxyController(deps.ProxyHosts)
	logController := controllers.NewLogController(deps.ActivityLogs)

	app.Get("/health", healthController.GetHealthStatus)
	app.Get("/health/live", healthController.Liveness)
	app.Get("/health/ready", healthController.Readiness)

	auth := deps.Auth
	if auth == nil {
		auth = middleware.JWTMiddleware()
	}

	// Registered ahead of the /api group: <img> tags cannot send a bearer token.
	app.Get("/api/photo-proxy", photoProxyController.Get)

	api := app.Group("/api", auth, middleware.LogActivityMiddleware(deps.Activity))

	classRequests := api.Group("/class-requests")
	classRequests.Get("/", classRequestController.List)
	classRequests.Get("/:id", classRequestController.Get)
	classRequests.Put("/:id", classRequestController.Update)
	classRequests.Put("/:id/approval", classRequestController.SetApproval)
	classRequests.Delete("/:id", middleware.RequireOwnerOrAdmin(), classRequestController.Delete)

	webUsers := api.Group("/web-users")
	webUsers.Get("/", webUserController.List)
	webUsers.Get("/:id", webUserController.Get)
	webUsers.Put("/:id", webUserController.Update)
	webUsers.Post("/:id/avatar", webUserController.UploadAvatar)
	webUsers.Delete("/:id", middleware.RequireOwnerOrAdmin(), webUserController.Delete)

	examCenters := api.Group("/exam-centers")
	examCenters.Get("/", examCenterController.List)
	examCenters.Get("/export", examCenterController.Export)
	examCenters.Get("/template", examCenterController.Template)
	examCenters.Post("/import", middleware.RequireOwnerOrAdmin(), examCenterController.Import)
	examCenters.Get("/:id", examCenterController.Get)
	examCenters.Post("/", examCenterController.Create)
	examCenters.Put("/:id", examCenterController.Update)
	examCenters.Delete("/:id", middleware.RequireOwnerOrAdmin(), examCenterController.Delete)

	logs := api.Group("/logs", middleware.RequireOwnerOrAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Post("/flush", logController.FlushCachedLogs)
	logs.Delete("/old", logController.DeleteOldLogs)
}
