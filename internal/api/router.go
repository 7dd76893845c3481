package api

import (
	"database/sql"
	"net/http"

	"github.com/carid/carid/internal/files"
	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/transfer"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, service *transfer.Service, fileStore *files.Store) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	profileHandler := &ProfileHandler{DB: db}
	carsHandler := &CarsHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db, Service: service}
	documentsHandler := &DocumentsHandler{DB: db, Service: service}
	chatHandler := &ChatHandler{DB: db}
	qrHandler := &QRHandler{DB: db}
	filesHandler := &FilesHandler{Files: fileStore}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated session management.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Own profile.
	mux.Handle("GET /api/profile", authMW(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PUT /api/profile", authMW(http.HandlerFunc(profileHandler.Update)))

	// Cars.
	mux.Handle("GET /api/cars", authMW(http.HandlerFunc(carsHandler.List)))
	mux.Handle("POST /api/cars", authMW(http.HandlerFunc(carsHandler.Create)))
	mux.Handle("GET /api/cars/lookup", authMW(http.HandlerFunc(carsHandler.Find)))
	mux.Handle("GET /api/cars/{id}", authMW(http.HandlerFunc(carsHandler.Get)))
	mux.Handle("PUT /api/cars/{id}", authMW(http.HandlerFunc(carsHandler.Update)))
	mux.Handle("DELETE /api/cars/{id}", authMW(http.HandlerFunc(carsHandler.Delete)))
	mux.Handle("GET /api/cars/{id}/qr", authMW(http.HandlerFunc(qrHandler.Image)))
	mux.Handle("POST /api/qr/resolve", authMW(http.HandlerFunc(qrHandler.Resolve)))

	// Transfers.
	mux.Handle("POST /api/transfers", authMW(http.HandlerFunc(transfersHandler.Create)))
	mux.Handle("GET /api/transfers", authMW(http.HandlerFunc(transfersHandler.List)))
	mux.Handle("GET /api/transfers/{id}", authMW(http.HandlerFunc(transfersHandler.Get)))
	mux.Handle("POST /api/transfers/{id}/actions", authMW(http.HandlerFunc(transfersHandler.Action)))

	// Transfer documents.
	mux.Handle("POST /api/transfers/{id}/documents", authMW(http.HandlerFunc(documentsHandler.Upload)))
	mux.Handle("GET /api/transfers/{id}/documents", authMW(http.HandlerFunc(documentsHandler.List)))
	mux.Handle("PUT /api/transfers/{id}/documents/{docID}/verification", authMW(requireAdmin(http.HandlerFunc(documentsHandler.Verify))))

	// Transfer chat.
	mux.Handle("POST /api/transfers/{id}/messages", authMW(http.HandlerFunc(chatHandler.Post)))
	mux.Handle("GET /api/transfers/{id}/messages", authMW(http.HandlerFunc(chatHandler.List)))

	// Uploaded files.
	mux.Handle("GET /files/", authMW(http.HandlerFunc(filesHandler.Serve)))

	return mux
}
