package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/podushkina/mailqueue/internal/queue"
	"github.com/podushkina/mailqueue/internal/status"
)

type Handler struct {
	queue    *queue.Queue
	resolver *status.Resolver
	log      *slog.Logger
}

func NewHandler(q *queue.Queue, resolver *status.Resolver, log *slog.Logger) *Handler {
	return &Handler{queue: q, resolver: resolver, log: log}
}

type SubmitResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmitEmail enqueues a send when both the sendmail and talktome query
// parameters are present. The recipient gets no syntax validation here;
// a malformed address surfaces later as an executor failure.
func (h *Handler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	sendmail := r.URL.Query().Get("sendmail")
	talktome := r.URL.Query().Get("talktome")

	if sendmail == "" || talktome == "" {
		http.Error(w, "Both sendmail and talktome parameters are required.", http.StatusBadRequest)
		return
	}

	t, err := h.queue.Enqueue(r.Context(), sendmail)
	if err != nil {
		h.log.Error("enqueue failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.log.Info("email task queued", "task_id", t.ID, "recipient", t.Recipient)
	respondJSON(w, http.StatusOK, SubmitResponse{
		Message: "Email task has been queued.",
		TaskID:  t.ID,
	})
}

func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")

	view, code, err := h.resolver.Resolve(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.Info("task status polled", "task_id", id, "status", view.Status)
	respondJSON(w, code, view)
}

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.queue.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
