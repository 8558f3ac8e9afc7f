package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/inspecasa/internal/inspection"
	"github.com/erazemk/inspecasa/internal/model"
	"github.com/erazemk/inspecasa/internal/store"
)

// DefaultSweepInterval is how often the sweeper looks for due inspections.
const DefaultSweepInterval = time.Hour

// Sweeper notifies inspectors the day before a property is due for
// inspection. Each property gets at most one due notification.
type Sweeper struct {
	Docs     inspection.DocumentStore
	DB       *sql.DB
	Events   inspection.Publisher
	Interval time.Duration
	Now      func() time.Time
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			slog.Error("notification sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep creates the missing due notifications for properties whose
// inspection date falls on tomorrow and returns how many it created.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	y, m, d := now.Date()
	from := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	properties, err := s.Docs.ListProperties(ctx, model.PropertyFilter{
		Statuses: []string{model.PropertyStatusPending, model.PropertyStatusInProgress},
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return 0, fmt.Errorf("listing due properties: %w", err)
	}

	created := 0
	for _, p := range properties {
		if p.AssignTo == 0 || p.LastDateOfInspection == nil {
			continue
		}

		exists, err := store.HasDueNotification(ctx, s.DB, p.ID, model.NotificationInspectionDue)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		n, err := store.CreateNotification(ctx, s.DB, dueNotification(&p))
		if err != nil {
			return created, err
		}
		created++

		slog.Info("inspection due notification created", "property", p.ID, "user", p.AssignTo)
		if s.Events != nil {
			ev := model.Event{
				Type:       model.EventNotificationCreated,
				PropertyID: p.ID,
				UserID:     n.UserID,
				At:         now,
			}
			if err := s.Events.Publish(ctx, ev); err != nil {
				slog.Warn("failed to publish event", "type", ev.Type, "error", err)
			}
		}
	}
	return created, nil
}

func dueNotification(p *model.Property) *model.Notification {
	name := p.Name
	if name == "" {
		name = "your property"
	}
	return &model.Notification{
		UserID:            p.AssignTo,
		Type:              model.NotificationInspectionDue,
		Title:             "Inspection Due Tomorrow!",
		Message:           fmt.Sprintf("Inspection for %q is due tomorrow", name),
		RelatedPropertyID: p.ID,
		ScheduledAt:       p.LastDateOfInspection.AddDate(0, 0, -1),
	}
}
