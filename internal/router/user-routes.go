package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/philling1/house-marketplace/internal/handler"
	"github.com/philling1/house-marketplace/internal/middleware"
)

// SetupUserRoutes configures all user and auth related routes.
func SetupUserRoutes(r *chi.Mux, userHandler *handler.UserHandler, jwtSecret string) {
	// Public user routes
	r.Post("/api/user/register", userHandler.Register)
	r.Post("/api/user/login", userHandler.Login)
	r.Post("/api/user/google", userHandler.GoogleSignIn)

	// Protected user routes (require JWT authentication)
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.JWTAuth(jwtSecret))

		authRouter.Post("/api/user/logout", userHandler.Logout)
		authRouter.Get("/api/user/profile", userHandler.GetProfile)
	})
}
