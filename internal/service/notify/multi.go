package notify

import (
	"context"
	"errors"
	"time"

	"TechMart/internal/domain/models"
	"TechMart/internal/domain/repository"
	applogger "TechMart/pkg/logger"

	"github.com/google/uuid"
)

// Sink is a named notifier.
type Sink struct {
	Name     string
	Notifier repository.Notifier
}

// Fanout delivers each event to every sink. A failing sink is logged and
// does not stop delivery to the others.
type Fanout struct {
	sinks   []Sink
	metrics repository.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func NewFanout(l *applogger.Logger, metrics repository.Metrics, sinks ...Sink) *Fanout {
	if l == nil {
		l = applogger.Nop()
	}
	return &Fanout{sinks: sinks, metrics: metrics, l: l, now: time.Now}
}

// NewEvent stamps an event with a fresh ID and the current time.
func (f *Fanout) NewEvent(eventType string, data interface{}) models.Event {
	return models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: f.now().UTC(),
		Data:      data,
	}
}

func (f *Fanout) Notify(ctx context.Context, event models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = f.now().UTC()
	}

	var errs []error
	for _, s := range f.sinks {
		if err := s.Notifier.Notify(ctx, event); err != nil {
			f.l.Warn("event delivery failed",
				applogger.String("sink", s.Name),
				applogger.String("type", event.Type),
				applogger.Error(err))
			errs = append(errs, err)
			continue
		}
		if f.metrics != nil {
			f.metrics.RecordEventPublished(s.Name, event.Type)
		}
	}
	return errors.Join(errs...)
}
