package inference

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrModelNotReady distinguishes "retry later" from real inference failure.
var ErrModelNotReady = errors.New("inference: model not ready")

// LoadState is the model loader's lifecycle state. ready and error are
// terminal until an explicit Reset.
type LoadState string

const (
	LoadNotStarted LoadState = "not_started"
	LoadLoading    LoadState = "loading"
	LoadReady      LoadState = "ready"
	LoadError      LoadState = "error"
)

// Status is a point-in-time snapshot of the loader.
type Status struct {
	State        LoadState `json:"status"`
	ModelsLoaded bool      `json:"models_loaded"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Loader gates access to a Predictor behind an off-request-path load. A
// Start while loading or ready is a no-op; status reads never block on the
// loading worker.
type Loader struct {
	predictor Predictor
	timeout   time.Duration

	mu      sync.RWMutex
	state   LoadState
	lastErr string
}

func NewLoader(p Predictor) *Loader {
	return &Loader{
		predictor: p,
		timeout:   5 * time.Minute,
		state:     LoadNotStarted,
	}
}

// Start launches one loading attempt on its own goroutine. Repeated calls
// while loading or ready do nothing.
func (l *Loader) Start() {
	l.mu.Lock()
	if l.state == LoadLoading || l.state == LoadReady {
		l.mu.Unlock()
		return
	}
	l.state = LoadLoading
	l.lastErr = ""
	l.mu.Unlock()

	log.Info("Starting background model loading...")
	go l.load()
}

func (l *Loader) load() {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	err := l.predictor.Warmup(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = LoadError
		l.lastErr = err.Error()
		log.Errorf("Model loading failed: %v", err)
		return
	}
	l.state = LoadReady
	log.Info("Model loading completed")
}

// Reset transitions any state back to not_started so a reload can begin.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.state = LoadNotStarted
	l.lastErr = ""
	l.mu.Unlock()
	log.Info("Model loader reset")
}

// Status returns the current snapshot without blocking.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.state {
	case LoadReady:
		return Status{State: LoadReady, ModelsLoaded: true}
	case LoadLoading:
		return Status{State: LoadLoading, Message: "Models are being loaded in background"}
	case LoadError:
		return Status{State: LoadError, Error: l.lastErr}
	default:
		return Status{State: LoadNotStarted}
	}
}

// Predictor returns the capability once ready, or ErrModelNotReady.
func (l *Loader) Predictor() (Predictor, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != LoadReady {
		return nil, ErrModelNotReady
	}
	return l.predictor, nil
}
