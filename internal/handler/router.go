package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/lot-auction/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса аукциона.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// websocket не проходит через сжатие ответов
		r.With(h.authMiddleware.Middleware).Get("/auction/events", h.Events)

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.GzipMiddleware)

			r.Post("/participants", h.Register)
			r.Get("/lots", h.GetLots)
			r.Get("/auction", h.GetState)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/participants/me", h.Me)
				r.Post("/auction/bids", h.PlaceBid)
				r.Get("/auction/history", h.GetHistory)

				r.Group(func(r chi.Router) {
					r.Use(h.requireAdmin)

					r.Post("/lots", h.AddLot)
					r.Post("/auction/start", h.command("start", h.service.Start))
					r.Post("/auction/pause", h.command("pause", h.service.Pause))
					r.Post("/auction/resume", h.command("resume", h.service.Resume))
					r.Post("/auction/next", h.command("next", h.service.NextLot))
					r.Post("/auction/end", h.command("end", h.service.End))
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
