package handlers

import (
	"net/http"

	"finlearn/internal/service"
)

// ProgressionHandler serves the gamification and stats endpoints
type ProgressionHandler struct {
	progression *service.ProgressionService
	*Responder
}

// NewProgressionHandler creates a new progression handler
func NewProgressionHandler(progression *service.ProgressionService, responder *Responder) *ProgressionHandler {
	return &ProgressionHandler{progression: progression, Responder: responder}
}

// Summary returns the user's full progression read model
func (h *ProgressionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.progression.Summary(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, sum)
}

type completeModuleRequest struct {
	LessonID string `json:"lessonId"`
	XPEarned int    `json:"xpEarned"`
}

// CompleteModule records a finished lesson
func (h *ProgressionHandler) CompleteModule(w http.ResponseWriter, r *http.Request) {
	var req completeModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	res, err := h.progression.CompleteModule(r.Context(), UserIDFromContext(r.Context()), req.LessonID, req.XPEarned)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

// UnlockAchievement records an achievement. A new unlock answers 201, a
// repeated one 200 with alreadyEarned set.
func (h *ProgressionHandler) UnlockAchievement(w http.ResponseWriter, r *http.Request) {
	var req service.UnlockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if req.Title == "" {
		if def, ok := h.progression.Catalog().Lookup(req.Type); ok {
			req.Title = def.Title
			if req.Description == "" {
				req.Description = def.Description
			}
			if req.Color == "" {
				req.Color = def.Color
			}
			if req.Requirement == "" {
				req.Requirement = def.Requirement
			}
		}
	}

	res, err := h.progression.UnlockAchievement(r.Context(), UserIDFromContext(r.Context()), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyEarned {
		status = http.StatusOK
	}
	h.JSON(w, status, res)
}

// Achievements lists the user's earned achievements
func (h *ProgressionHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.progression.Achievements(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, list)
}

// AchievementCatalog lists every achievement with the user's unlock state
func (h *ProgressionHandler) AchievementCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.progression.AchievementCatalog(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, entries)
}

// SkillTrees lists the user's skill tree progress
func (h *ProgressionHandler) SkillTrees(w http.ResponseWriter, r *http.Request) {
	trees, err := h.progression.SkillTrees(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, trees)
}

type skillTreeRequest struct {
	SkillTreeID string `json:"skillTreeId"`
	Progress    int    `json:"progress"`
}

// UpdateSkillTree sets progress for one skill tree
func (h *ProgressionHandler) UpdateSkillTree(w http.ResponseWriter, r *http.Request) {
	var req skillTreeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	tree, err := h.progression.UpdateSkillTree(r.Context(), UserIDFromContext(r.Context()), req.SkillTreeID, req.Progress)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, tree)
}

// Stats returns the compact stats view
func (h *ProgressionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.progression.Stats(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, stats)
}

// UpdateStats applies a manual partial stats update
func (h *ProgressionHandler) UpdateStats(w http.ResponseWriter, r *http.Request) {
	var req service.StatsUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	user, err := h.progression.UpdateStats(r.Context(), UserIDFromContext(r.Context()), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, user)
}

type addXPRequest struct {
	XPAmount int `json:"xpAmount"`
}

// AddXP credits XP. An Idempotency-Key header makes retries safe.
func (h *ProgressionHandler) AddXP(w http.ResponseWriter, r *http.Request) {
	var req addXPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	res, err := h.progression.AddXP(r.Context(), UserIDFromContext(r.Context()), req.XPAmount, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

// CheckStreak resets a lapsed streak and stamps the visit
func (h *ProgressionHandler) CheckStreak(w http.ResponseWriter, r *http.Request) {
	res, err := h.progression.CheckStreak(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}
