package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/larder-app/larder/internal/cache"
	"github.com/larder-app/larder/internal/model"
)

// NewRouter wires all API routes. corsOrigins is a comma-separated list of
// allowed origins.
func NewRouter(db *sql.DB, jwtSecret, corsOrigins string) http.Handler {
	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	inventoryHandler := &InventoryHandler{
		DB:    db,
		Cache: cache.NewLists[model.InventoryItem](),
	}
	shoppingHandler := &ShoppingHandler{
		DB:             db,
		Cache:          cache.NewLists[model.ShoppingItem](),
		InventoryCache: inventoryHandler.Cache,
	}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(corsOrigins, ","),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret, db))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/inventory", inventoryHandler.List)
			r.Post("/inventory", inventoryHandler.Create)
			r.Get("/inventory/stats", inventoryHandler.Stats)
			r.Put("/inventory/{id}", inventoryHandler.Update)
			r.Delete("/inventory/{id}", inventoryHandler.Delete)
			r.Put("/inventory/{id}/photo", inventoryHandler.UploadPhoto)
			r.Get("/inventory/{id}/photo", inventoryHandler.GetPhoto)

			r.Get("/shopping", shoppingHandler.List)
			r.Post("/shopping", shoppingHandler.Create)
			r.Put("/shopping/{id}", shoppingHandler.Update)
			r.Delete("/shopping/{id}", shoppingHandler.Delete)
		})
	})

	return r
}
