package kv

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 10 * time.Minute

// Janitor periodically sweeps expired entries out of the fallback
// store so abandoned keys do not sit in memory until eviction.
type Janitor struct {
	fallback *Fallback
	logger   *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewJanitor(fallback *Fallback, logger *zap.Logger) *Janitor {
	return &Janitor{
		fallback: fallback,
		logger:   logger,
		interval: defaultSweepInterval,
		stopCh:   make(chan struct{}),
	}
}

func (j *Janitor) SetInterval(d time.Duration) {
	j.interval = d
}

func (j *Janitor) Start() {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("fallback janitor started", zap.Duration("interval", j.interval))

		for {
			select {
			case <-ticker.C:
				if removed := j.fallback.Sweep(); removed > 0 {
					j.logger.Debug("swept expired fallback entries", zap.Int("removed", removed))
				}
			case <-j.stopCh:
				j.logger.Info("fallback janitor stopped")
				return
			}
		}
	}()
}

func (j *Janitor) Stop() {
	close(j.stopCh)
	j.wg.Wait()
}
