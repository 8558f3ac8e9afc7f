package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/inspecasa/internal/imagestore"
	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/report"
)

// Options holds the dependencies of the API handlers.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	Service   *inspection.Service
	Staging   *imagestore.Staging
	Renderer  *report.Renderer
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: opts.DB, JWTSecret: opts.JWTSecret}
	usersHandler := &UsersHandler{DB: opts.DB}
	propertiesHandler := &PropertiesHandler{DB: opts.DB, Service: opts.Service}
	imagesHandler := &ImagesHandler{DB: opts.DB, Staging: opts.Staging}
	reportsHandler := &ReportsHandler{Service: opts.Service, Renderer: opts.Renderer}
	notificationsHandler := &NotificationsHandler{DB: opts.DB}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireInspector := RequireRole(model.RoleInspector)

	// authed requires a valid token of any known role.
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(requireInspector(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMW(requireAdmin(h))
	}

	// Public: login and stored images.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/images/{id}", imagesHandler.Get)

	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Properties: admins create and delete, assignees inspect.
	mux.Handle("GET /api/properties", authed(propertiesHandler.List))
	mux.Handle("POST /api/properties", admin(propertiesHandler.Create))
	mux.Handle("GET /api/properties/{id}", authed(propertiesHandler.Get))
	mux.Handle("DELETE /api/properties/{id}", admin(propertiesHandler.Delete))
	mux.Handle("PUT /api/properties/{id}/inspections", authed(propertiesHandler.SubmitInspection))
	mux.Handle("POST /api/properties/{id}/complete", authed(propertiesHandler.Complete))

	mux.Handle("POST /api/uploads", authed(imagesHandler.Upload))

	// Reports (history).
	mux.Handle("GET /api/reports", authed(reportsHandler.List))
	mux.Handle("GET /api/reports/{id}", authed(reportsHandler.Get))
	mux.Handle("GET /api/reports/{id}/document", authed(reportsHandler.Document))
	mux.Handle("POST /api/reports/{id}/signature", authed(reportsHandler.Sign))
	mux.Handle("DELETE /api/reports/{id}", authed(reportsHandler.Delete))

	// Notifications of the current user.
	mux.Handle("GET /api/notifications", authed(notificationsHandler.List))
	mux.Handle("GET /api/notifications/unread", authed(notificationsHandler.Unread))
	mux.Handle("POST /api/notifications/read", authed(notificationsHandler.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/read", authed(notificationsHandler.MarkRead))

	return mux
}
