package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dokterku/clinic-finance/internal/auth"
	"github.com/dokterku/clinic-finance/internal/budget"
	"github.com/dokterku/clinic-finance/internal/category"
	"github.com/dokterku/clinic-finance/internal/transaction"
	"github.com/dokterku/clinic-finance/internal/transport/middleware"
	"github.com/dokterku/clinic-finance/internal/transport/swagger"
	"github.com/dokterku/clinic-finance/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, authService *auth.Service, userHandler *user.Handler, transactionHandler *transaction.Handler, categoryHandler *category.Handler, budgetHandler *budget.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	rbac := authService.RBACAuthorization(logger)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Category registry is public, the dashboard needs it before login
		if categoryHandler != nil {
			r.Get("/categories", categoryHandler.GetCategories)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				if budgetHandler != nil {
					pr.Get("/budget/check", budgetHandler.CheckBudget)
				}

				if transactionHandler != nil {
					pr.Route("/transactions", func(tr chi.Router) {
						tr.Post("/", transactionHandler.CreateTransaction)
						tr.Get("/", transactionHandler.ListTransactions)
						tr.Get("/{id}", transactionHandler.GetTransaction)
						tr.Get("/{id}/insights", transactionHandler.TransactionInsights)
						tr.Post("/{id}/notes", transactionHandler.AddNote)

						// Validation routes. The handlers re-check the amount
						// gate so routing only enforces the coarse role,
						// revert included.
						tr.Group(func(vr chi.Router) {
							vr.Use(rbac.RequireValidator())
							vr.Patch("/{id}/approve", transactionHandler.ApproveTransaction)
							vr.Patch("/{id}/reject", transactionHandler.RejectTransaction)
							vr.Patch("/{id}/revision", transactionHandler.RequestRevision)
							vr.Patch("/{id}/revert", transactionHandler.RevertTransaction)
						})

						tr.Group(func(qr chi.Router) {
							qr.Use(middleware.RequirePermissions(auth.PermValidateTransactions, auth.PermManager, auth.PermAdmin))
							qr.Post("/quick-actions", transactionHandler.RunQuickAction)
						})
					})
				}
			})
		}
	})
}
