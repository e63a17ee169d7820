package handlers

import (
	"net/http"

	"finlearn/internal/service"
)

// LessonHandler serves the lesson catalog
type LessonHandler struct {
	lessons *service.LessonService
	*Responder
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessons *service.LessonService, responder *Responder) *LessonHandler {
	return &LessonHandler{lessons: lessons, Responder: responder}
}

// List returns lessons, filtered by the optional category query parameter
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, lessons)
}

// Get returns one lesson
func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, lesson)
}

// Create adds a lesson to the catalog
func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	lesson, err := h.lessons.Create(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, lesson)
}
