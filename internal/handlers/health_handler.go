package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Startup steps reported by /readyz
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker with the server's startup steps pending
func NewStartupStatus() *StartupStatus {
	return &StartupStatus{
		current: "Initializing...",
		steps: []StartupStep{
			{Name: StepDatabase},
			{Name: StepMigrations},
			{Name: StepServices},
			{Name: StepReady},
		},
	}
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := 0
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
		}
		if s.steps[i].Completed {
			completed++
		}
	}
	s.progress = (completed * 100) / len(s.steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.CompleteStep(StepReady)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = StepReady
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

type startupView struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

func (s *StartupStatus) view() startupView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps := make([]StartupStep, len(s.steps))
	copy(steps, s.steps)
	return startupView{Ready: s.ready, Current: s.current, Progress: s.progress, Steps: steps}
}

// Pinger checks a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db      Pinger
	startup *StartupStatus
	*Responder
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, startup *StartupStatus, responder *Responder) *HealthHandler {
	return &HealthHandler{db: db, startup: startup, Responder: responder}
}

// Healthz reports whether the database answers a ping
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "not connected"})
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health check failed", "error", err)
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "unreachable"})
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

// Readyz reports startup progress and answers 503 until the server is ready
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !h.startup.IsReady() {
		status = http.StatusServiceUnavailable
	}
	h.JSON(w, status, h.startup.view())
}
