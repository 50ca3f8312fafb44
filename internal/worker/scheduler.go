package worker

import (
	log "github.com/sirupsen/logrus"
)

// Runner is the Start/Stop lifecycle every background worker implements.
type Runner interface {
	Start()
	Stop()
}

// Scheduler owns the background workers as a unit so main can start and
// drain them together.
type Scheduler struct {
	workers []Runner
}

func NewScheduler(workers ...Runner) *Scheduler {
	return &Scheduler{workers: workers}
}

// StartAll starts every registered worker.
func (s *Scheduler) StartAll() {
	log.Infoln("Starting all workers...")
	for _, w := range s.workers {
		w.Start()
	}
	log.Infoln("All workers started")
}

// StopAll stops workers in reverse start order and waits for each.
func (s *Scheduler) StopAll() {
	for i := len(s.workers) - 1; i >= 0; i-- {
		s.workers[i].Stop()
	}
	log.Infoln("All workers stopped")
}
