package display

import (
	"sync"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
)

// Memory is an in-process status surface holding a text and a class list,
// like the #status element of the upload page. Only the latest state is kept.
type Memory struct {
	mu      sync.RWMutex
	text    string
	state   model.StatusState
	classes map[string]struct{}
}

// NewMemory creates an idle Memory display
func NewMemory() *Memory {
	return &Memory{
		state:   model.StatusIdle,
		classes: map[string]struct{}{},
	}
}

// SetPending implements interfaces.StatusDisplay
func (m *Memory) SetPending() {
	m.set(model.StatusPending, model.PendingMessage)
}

// SetSuccess implements interfaces.StatusDisplay
func (m *Memory) SetSuccess() {
	m.set(model.StatusSuccess, model.SuccessMessage)
}

// SetError implements interfaces.StatusDisplay
func (m *Memory) SetError(description string) {
	m.set(model.StatusError, model.ErrorText(description))
}

func (m *Memory) set(state model.StatusState, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	m.text = text
	delete(m.classes, model.ClassSuccess)
	delete(m.classes, model.ClassError)
	if class := state.Class(); class != "" {
		m.classes[class] = struct{}{}
	}
}

// Text returns the current status text
func (m *Memory) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}

// State returns the current state
func (m *Memory) State() model.StatusState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// HasClass reports whether class is currently applied
func (m *Memory) HasClass(class string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.classes[class]
	return ok
}
