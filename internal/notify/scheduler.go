package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
)

// DefaultSchedule runs the alert generator every morning at 08:00
const DefaultSchedule = "0 8 * * *"

// MemberSource lists every household membership
type MemberSource interface {
	ListAllMembers(ctx context.Context) ([]*inventory.Member, error)
}

// Generator creates the alerts for one user and household
type Generator interface {
	Generate(ctx context.Context, userID, householdID string) (*inventory.GenerateResult, error)
}

// Scheduler periodically generates notifications for every household member
type Scheduler struct {
	cron      *cron.Cron
	members   MemberSource
	generator Generator
	schedule  string
	timeout   time.Duration
}

// NewScheduler creates a scheduler. An empty schedule uses DefaultSchedule.
func NewScheduler(members MemberSource, generator Generator, schedule string, timeout time.Duration) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:      cron.New(),
		members:   members,
		generator: generator,
		schedule:  schedule,
		timeout:   timeout,
	}
}

// Start registers the job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("scheduling notifications %q: %w", s.schedule, err)
	}
	slog.Info("Starting notification scheduler", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	slog.Info("Stopping notification scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Run(ctx); err != nil {
		slog.Error("Scheduled notification run failed", "error", err)
	}
}

// Run generates notifications for every membership and returns how many were created.
// Per-user failures are logged and skipped.
func (s *Scheduler) Run(ctx context.Context) (int, error) {
	members, err := s.members.ListAllMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing members: %w", err)
	}

	created := 0
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		result, err := s.generator.Generate(ctx, m.UserID, m.HouseholdID)
		if err != nil {
			slog.Error("Failed to generate notifications", "user_id", m.UserID, "household_id", m.HouseholdID, "error", err)
			continue
		}
		created += result.NotificationsCreated
	}

	slog.Info("Notification run complete", "members", len(members), "created", created)
	return created, nil
}
