package routes

import (
	"classtrack_go/controllers"
	"classtrack_go/middleware"
	"classtrack_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	directoryController := &controllers.DirectoryController{}
	timetableController := &controllers.TimetableController{}
	timetableImportController := &controllers.TimetableImportController{}
	substitutionController := &controllers.SubstitutionController{}
	attendanceController := &controllers.AttendanceController{}
	notificationController := &controllers.NotificationController{}
	logController := controllers.NewLogController()
	healthController := controllers.NewHealthController(nil)
	wsController := controllers.NewWebSocketController(wsHub)

	// Health endpoints (no authentication)
	app.Get("/health", healthController.GetHealthStatus)

	// API group
	api := app.Group("/api")
	api.Get("/health", healthController.GetHealthStatus)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)

	// User management (admin only)
	users := protected.Group("/users", middleware.RequireAdmin())
	users.Post("/", authController.Register)

	// Reference data
	directory := protected.Group("/")
	directory.Get("/departments", directoryController.GetDepartments)
	directory.Get("/batches", directoryController.GetBatches)
	directory.Get("/subjects", directoryController.GetSubjects)
	directory.Get("/teachers", middleware.RequireTeacherOrAbove(), directoryController.GetTeachers)
	directory.Get("/batches/:batch_id/students", middleware.RequireTeacherOrAbove(), directoryController.GetStudents)

	// Timetable routes
	timetable := protected.Group("/timetable")
	timetable.Get("/:batch_id", timetableController.GetWeekSchedule)
	timetable.Get("/:batch_id/:weekday", timetableController.GetDaySchedule)
	timetable.Put("/:batch_id/:weekday", middleware.RequireAdmin(), timetableController.UpsertDaySchedule)
	timetable.Post("/import", middleware.RequireAdmin(), timetableImportController.Import)

	// Substitution routes (teachers act on their own classes)
	substitutions := protected.Group("/substitutions", middleware.RequireTeacherOrAbove())
	substitutions.Get("/candidates", substitutionController.FindSubstitutes)
	substitutions.Post("/", substitutionController.CreateSubstitution)
	substitutions.Get("/my", substitutionController.ListMySubstitutions)
	substitutions.Get("/:id", substitutionController.GetSubstitution)
	substitutions.Patch("/:id/status", substitutionController.UpdateSubstitutionStatus)
	substitutions.Delete("/:id", substitutionController.CancelSubstitution)

	// Attendance routes
	attendance := protected.Group("/attendance", middleware.RequireTeacherOrAbove())
	attendance.Post("/", attendanceController.MarkAttendance)
	attendance.Get("/sessions/:batch_id", attendanceController.ListSessions)
	attendance.Get("/matrix/:department_id/:batch_id", attendanceController.GetAttendanceMatrix)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)

	// Log management routes (admin only)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Post("/archive", logController.ArchiveLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
	logs.Get("/:id", logController.GetLog)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
