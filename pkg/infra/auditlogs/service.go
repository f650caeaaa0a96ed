package auditlogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//go:generate mockery --name=Service --dir=. --output=./mocks --filename=service_mock.go --case=underscore --with-expecter
type Service interface {
	Emit(ctx context.Context, event Event)
	Close() error
}

type service struct {
	enabled bool
	logger  *logrus.Logger
	newID   func() string
}

// NewService returns the security event logger. Events are written through
// logrus under the "security_event" field set so the log shipper can route
// them separately.
func NewService(logger *logrus.Logger, enabled bool) Service {
	return &service{
		enabled: enabled,
		logger:  logger,
		newID:   func() string { return uuid.New().String() },
	}
}

func (s *service) Emit(ctx context.Context, event Event) {
	if !s.enabled || s.logger == nil {
		return
	}
	if event.Context.RequestID == "" {
		event.Context.RequestID = s.newID()
	}
	if event.Event.Category == "" {
		event.Event.Category = CategoryRunTimeSecurity
	}

	entry := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"security_event": true,
		"event_type":     event.Event.Type,
		"category":       event.Event.Category,
		"status":         event.Event.Status,
		"target_type":    event.Target.Type,
		"target_id":      event.Target.ID,
		"request_id":     event.Context.RequestID,
	})
	if event.Target.Name != "" {
		entry = entry.WithField("target_name", event.Target.Name)
	}
	if event.Context.IPAddress != "" {
		entry = entry.WithField("ip", event.Context.IPAddress)
	}
	if event.Context.CallerID != "" {
		entry = entry.WithField("caller_id", event.Context.CallerID)
	}
	if event.Context.Tier != "" {
		entry = entry.WithField("tier", event.Context.Tier)
	}
	if event.Context.Method != "" {
		entry = entry.WithFields(logrus.Fields{"method": event.Context.Method, "path": event.Context.Path})
	}
	if event.Context.UserAgent != "" {
		entry = entry.WithField("user_agent", event.Context.UserAgent)
	}
	if event.Event.ErrorMessage != "" {
		entry = entry.WithField("error", event.Event.ErrorMessage)
		entry.Error(event.Event.Description)
		return
	}
	entry.Warn(event.Event.Description)
}

func (s *service) Close() error {
	return nil
}
