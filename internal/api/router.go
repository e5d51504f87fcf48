// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamx/streamx/internal/auth"
	"github.com/streamx/streamx/internal/middleware"
)

// Router builds the chi handler for the whole HTTP surface.
//
// Route groups and their guards:
//   - /metrics and /api/v1/health are public.
//   - /api/v1/auth carries a strict per-IP rate limit; register and
//     login are public, me and profile require a token.
//   - everything else under /api/v1 requires a token; admin and
//     subscription guards are applied per route.
func (h *Handler) Router() http.Handler {
	authmw := auth.NewMiddleware(h.jwt, h.db)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/health", h.Health)

	r.Route("/api/v1/auth", func(r chi.Router) {
		// Brute-force protection: much tighter than the general limit.
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate)
			r.Get("/me", h.Me)
			r.Put("/profile", h.UpdateProfile)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)
		r.Use(authmw.Authenticate)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Put("/{id}/read", h.MarkNotificationRead)
			r.Put("/mark-all-read", h.MarkAllNotificationsRead)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAdmin)
				r.Post("/send", h.SendNotification)
				r.Post("/broadcast", h.BroadcastNotification)
			})
		})

		r.Get("/recommendations", h.Recommendations)

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/create-checkout", h.CreateCheckout)
			r.Post("/verify-payment", h.VerifyPayment)
			r.Get("/my-subscription", h.MySubscription)
			r.Post("/cancel", h.CancelSubscription)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", h.ListVideos)
			r.Get("/{id}", h.GetVideo)
			r.Post("/{id}/like", h.LikeVideo)
			r.Post("/watch-history", h.WatchHistory)

			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireAdmin)
				r.Post("/", h.CreateVideo)
				r.Delete("/{id}", h.DeleteVideo)
				r.Post("/{id}/subtitles", h.AddSubtitle)
			})
		})

		r.Route("/reels", func(r chi.Router) {
			r.Get("/", h.ListReels)
			r.Post("/", h.CreateReel)
			r.Post("/{id}/like", h.LikeReel)
			r.Post("/{id}/view", h.ViewReel)
		})

		r.Route("/discussions", func(r chi.Router) {
			r.Get("/", h.ListDiscussions)
			r.Post("/", h.CreateDiscussion)
			r.Get("/{id}", h.GetDiscussion)
			r.Delete("/{id}", h.DeleteDiscussion)
			r.Post("/{id}/like", h.ToggleDiscussionLike)
			r.Post("/{id}/comment", h.AddComment)
		})

		r.Get("/moviereels", h.MovieReels)
	})

	return r
}
