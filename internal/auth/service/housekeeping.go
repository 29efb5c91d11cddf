package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkwell/inkwell/internal/auth/store"
)

// HousekeepingService periodically sweeps expired device sessions out of the
// store. Expired sessions are already refused by the iat and expiry checks;
// the sweep only keeps the table from accumulating dead rows.
type HousekeepingService struct {
	store    store.Store
	logger   *slog.Logger
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		store:    st,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *HousekeepingService) Start() {
	go s.run()
}

// Stop signals the loop to exit and waits for the in-flight sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.store.Sessions().DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("session sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", slog.Int64("count", removed))
	}
}
