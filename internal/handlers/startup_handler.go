package handlers

import (
	"net/http"
	"sync"
)

// Startup step names, in the order the server completes them
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepMailer     = "Configuring mail"
	StepServices   = "Initializing services"
)

// StartupStep is one initialization stage
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

// NewStartupStatus creates a tracker for the given steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
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

	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	if len(s.steps) > 0 {
		s.progress = (completed * 100) / len(s.steps)
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ServeHTTP reports readiness as JSON: 200 when ready, 503 before.
func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	body := envelope{
		"success":  s.ready,
		"message":  s.current,
		"ready":    s.ready,
		"progress": s.progress,
		"steps":    append([]StartupStep(nil), s.steps...),
	}
	ready := s.ready
	s.mu.RUnlock()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, body)
}

// Gate lets the server listen before initialization finishes. Until Open
// is called / stays live, /healthz reports progress and every other path
// answers 503.
type Gate struct {
	status *StartupStatus

	mu      sync.RWMutex
	handler http.Handler
}

// NewGate returns a closed gate reporting status
func NewGate(status *StartupStatus) *Gate {
	return &Gate{status: status}
}

// Open starts routing to h and marks the server ready
func (g *Gate) Open(h http.Handler) {
	g.mu.Lock()
	g.handler = h
	g.mu.Unlock()
	g.status.MarkReady()
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	h := g.handler
	g.mu.RUnlock()

	if h != nil {
		h.ServeHTTP(w, r)
		return
	}
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		Liveness(w, r)
		return
	case r.URL.Path == "/healthz":
		g.status.ServeHTTP(w, r)
		return
	}

	g.status.mu.RLock()
	current := g.status.current
	g.status.mu.RUnlock()

	w.Header().Set("Retry-After", "1")
	respondJSON(w, http.StatusServiceUnavailable, envelope{
		"success": false,
		"message": "Server is starting: " + current,
	})
}
