// Package scheduler
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/smiletrip/smiletrip/models"
	"github.com/smiletrip/smiletrip/repository"
	"github.com/smiletrip/smiletrip/utils"
)

// MaintenanceScheduler periodically sweeps the quote and session tables:
// building quotes untouched for longer than the abandonment window are marked
// abandoned, and naturally expired customer sessions are deactivated.
type MaintenanceScheduler struct {
	quoteRepo   repository.QuoteRepository
	sessionRepo repository.CustomerSessionRepository
	logger      *log.Logger
	interval    time.Duration

	abandonAfter time.Duration
	batchSize    int

	logFile *os.File
}

func NewMaintenanceScheduler(
	quoteRepo repository.QuoteRepository,
	sessionRepo repository.CustomerSessionRepository,
	logger *log.Logger,
	interval time.Duration,
) *MaintenanceScheduler {
	if interval <= 0 {
		interval = time.Hour
	}

	s := &MaintenanceScheduler{
		quoteRepo:    quoteRepo,
		sessionRepo:  sessionRepo,
		interval:     interval,
		abandonAfter: utils.QuoteAbandonAfter,
		batchSize:    500,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}
	if logger != nil {
		s.logger = logger
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *MaintenanceScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *MaintenanceScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				if s.logFile != nil {
					_ = s.logFile.Close()
				}
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *MaintenanceScheduler) runOnce(ctx context.Context) {
	s.abandonStaleQuotes(ctx)
	s.cleanupSessions(ctx)
}

// abandonStaleQuotes marks building quotes untouched since the cutoff as
// abandoned. Each quote goes through the versioned update, a concurrent edit
// wins and the quote is skipped until the next sweep.
func (s *MaintenanceScheduler) abandonStaleQuotes(ctx context.Context) {
	cutoff := utils.UTCNow().Add(-s.abandonAfter)

	stale, err := s.quoteRepo.ListStaleBuilding(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Printf("scheduler: list stale quotes failed: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	abandoned := 0
	for _, quote := range stale {
		quote.Status = models.QuoteStatusAbandoned
		quote.UpdatedAt = utils.UTCNow()
		if err := s.quoteRepo.UpdateWithVersion(ctx, quote, quote.Version); err != nil {
			if errors.Is(err, repository.ErrStaleQuote) {
				continue
			}
			s.logger.Printf("scheduler: abandon quote id=%d failed: %v", quote.ID, err)
			continue
		}
		abandoned++
	}

	s.logger.Printf("scheduler: abandoned %d of %d stale quotes", abandoned, len(stale))
}

func (s *MaintenanceScheduler) cleanupSessions(ctx context.Context) {
	if err := s.sessionRepo.CleanupExpiredSessions(ctx); err != nil {
		s.logger.Printf("scheduler: session cleanup failed: %v", err)
		return
	}
	s.logger.Printf("scheduler: expired sessions cleaned up")
}
