package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/", h.SubmitEmail)
	r.Get("/task_status/{task_id}", h.TaskStatus)
	r.Get("/tasks", h.ListTasks)
	r.Get("/health", h.HealthCheck)

	return r
}
