package mocks

import (
	"context"
	"sync"

	"github.com/PavanAnganna90/PavanAnganna90-sub004/pkg/infra/auditlogs"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Emit(ctx context.Context, event auditlogs.Event) {
	m.Called(ctx, event)
}

func (m *MockService) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Recorder keeps every emitted event; handy when a test only cares about
// what was emitted, not about call expectations.
type Recorder struct {
	mu     sync.Mutex
	events []auditlogs.Event
}

func (r *Recorder) Emit(_ context.Context, event auditlogs.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []auditlogs.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auditlogs.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the emitted events with the given type.
func (r *Recorder) OfType(eventType string) []auditlogs.Event {
	var out []auditlogs.Event
	for _, e := range r.Events() {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
