package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// CronService schedules the corrective sweeps: the gentle backward-fix (and
// case normalize) on a configurable interval, and overdue marking nightly.
// The destructive forward-sync stays manual-trigger only.
type CronService struct {
	cron      *cron.Cron
	reconcile *ReconcileService
	fixSpec   string
}

// NewCronService creates a new cron service. fixSpec is a cron expression
// for the reconcile sweep, e.g. "*/15 * * * *".
func NewCronService(reconcile *ReconcileService, fixSpec string) *CronService {
	return &CronService{
		cron:      cron.New(),
		reconcile: reconcile,
		fixSpec:   fixSpec,
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.fixSpec, s.runFix); err != nil {
		return err
	}
	// Overdue marking shortly after midnight
	if _, err := s.cron.AddFunc("5 0 * * *", s.runOverdue); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("cron service started (fix schedule %q)", s.fixSpec)
	return nil
}

// Stop stops the scheduler, waiting for running jobs is not needed since
// sweeps are single statements.
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("cron service stopped")
}

func (s *CronService) runFix() {
	ctx := context.Background()
	if _, err := s.reconcile.NormalizeCase(ctx); err != nil {
		log.Printf("cron normalize failed: %v", err)
	}
	if _, err := s.reconcile.FixStatus(ctx); err != nil {
		log.Printf("cron fix failed: %v", err)
	}
}

func (s *CronService) runOverdue() {
	if _, err := s.reconcile.MarkOverdue(context.Background()); err != nil {
		log.Printf("cron overdue marking failed: %v", err)
	}
}
