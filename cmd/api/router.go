package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/splitledger/docs"
	"github.com/fkhayef/splitledger/internal/expense"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/settlement"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/logger"
	"github.com/fkhayef/splitledger/pkg/metrics"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

// handlers groups the feature routers mounted under /api/v1
type handlers struct {
	users       *user.Handler
	groups      *group.Handler
	expenses    *expense.Handler
	settlements *settlement.Handler
}

func newRouter(log *logger.Logger, gatherer prometheus.Gatherer, h handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler(gatherer))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Registration needs no acting user
		r.Mount("/users", h.users.Routes())

		r.Group(func(r chi.Router) {
			r.Use(mw.ActingUser)
			r.Use(mw.LogActingUser(log))

			r.Mount("/groups", h.groups.Routes())
			r.Mount("/expenses", h.expenses.Routes())
			r.Mount("/settlements", h.settlements.Routes())
		})
	})

	return r
}
