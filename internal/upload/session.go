package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-dashboard/internal/notify"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"go.uber.org/zap"
)

// Phase is the stage of an upload session.
type Phase string

const (
	PhaseEmpty     Phase = "empty"
	PhaseUploading Phase = "uploading"
	PhaseAnalyzing Phase = "analyzing"
	PhaseDashboard Phase = "dashboard"
)

var phaseOrder = map[Phase]int{
	PhaseEmpty:     0,
	PhaseUploading: 1,
	PhaseAnalyzing: 2,
	PhaseDashboard: 3,
}

var (
	// ErrBusy is returned when a file is uploaded into a session that already
	// holds one. Reset the session first.
	ErrBusy = errors.New("session already holds a file")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)

// Timing controls the simulated delays.
type Timing struct {
	ProgressInterval time.Duration
	ProgressStep     int
	AnalysisDelay    time.Duration
}

// DefaultTiming returns the standard delays: +10% every 100ms, then 3s of
// analysis.
func DefaultTiming() Timing {
	return Timing{
		ProgressInterval: constants.DefaultProgressInterval,
		ProgressStep:     constants.DefaultProgressStep,
		AnalysisDelay:    constants.DefaultAnalysisDelay,
	}
}

func (t Timing) normalize() Timing {
	d := DefaultTiming()
	if t.ProgressInterval <= 0 {
		t.ProgressInterval = d.ProgressInterval
	}
	if t.ProgressStep <= 0 {
		t.ProgressStep = d.ProgressStep
	}
	if t.AnalysisDelay < 0 {
		t.AnalysisDelay = 0
	}
	return t
}

// Status is a snapshot of a session.
type Status struct {
	ID           string               `json:"id"`
	Phase        Phase                `json:"phase"`
	Progress     int                  `json:"progress"`
	Filename     string               `json:"filename,omitempty"`
	Size         int64                `json:"size,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// Session drives one upload through its phases. Timers run on a goroutine
// bound to a context; Reset and Close cancel it, and a cancelled run never
// changes the session again.
type Session struct {
	id     string
	logger *zap.Logger
	timing Timing

	mu      sync.Mutex
	status  Status
	gen     uint64
	cancel  context.CancelFunc
	changed chan struct{}
	closed  bool
	done    chan struct{} // closed when the current run returns
}

// NewSession returns an empty session with a fresh id.
func NewSession(logger *zap.Logger, timing Timing) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:      id,
		logger:  logger,
		timing:  timing.normalize(),
		status:  Status{ID: id, Phase: PhaseEmpty, UpdatedAt: time.Now()},
		changed: make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Status returns the current snapshot.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Status {
	st := s.status
	st.Notification = notify.Copy(st.Notification)
	return st
}

// Upload accepts a file and starts the simulated progress. A rejected file
// leaves the session untouched and returns a *RejectionError.
func (s *Session) Upload(filename string, size int64) error {
	if err := ValidateFilename(filename); err != nil {
		s.logger.Info("rejected upload",
			zap.String("op", "upload.Upload"),
			zap.String("session", s.id),
			zap.String("filename", filename),
		)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.status.Phase != PhaseEmpty {
		return fmt.Errorf("%w: %s", ErrBusy, s.status.Phase)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.setLocked(Status{
		Phase:    PhaseUploading,
		Progress: constants.InitialProgress,
		Filename: filename,
		Size:     size,
	})

	done := make(chan struct{})
	s.done = done
	go func() {
		defer close(done)
		s.run(ctx, gen)
	}()

	s.logger.Debug(fmt.Sprintf("accepted upload %s (%d bytes)", filename, size),
		zap.String("op", "upload.Upload"),
		zap.String("session", s.id),
	)
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.timing.ProgressInterval)
	defer ticker.Stop()

	for uploaded := false; !uploaded; {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		current := s.update(gen, func(st *Status) {
			st.Progress += s.timing.ProgressStep
			if st.Progress >= constants.CompleteProgress {
				st.Progress = constants.CompleteProgress
				st.Phase = PhaseAnalyzing
				uploaded = true
			}
		})
		if !current {
			return
		}
	}

	timer := time.NewTimer(s.timing.AnalysisDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		n := analyzedNotification
		if s.update(gen, func(st *Status) {
			st.Phase = PhaseDashboard
			st.Notification = &n
		}) {
			s.logger.Info("analysis complete",
				zap.String("op", "upload.run"),
				zap.String("session", s.id),
			)
		}
	}
}

// update applies fn when the run that scheduled it is still current.
func (s *Session) update(gen uint64, fn func(*Status)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return false
	}
	st := s.status
	fn(&st)
	s.setLocked(st)
	return true
}

func (s *Session) setLocked(st Status) {
	st.ID = s.id
	st.UpdatedAt = time.Now()
	s.status = st
	close(s.changed)
	s.changed = make(chan struct{})
}

// Wait blocks until the session reaches phase (or a later one) or ctx ends.
func (s *Session) Wait(ctx context.Context, phase Phase) (Status, error) {
	for {
		s.mu.Lock()
		st := s.snapshot()
		changed := s.changed
		closed := s.closed
		s.mu.Unlock()

		if phaseOrder[st.Phase] >= phaseOrder[phase] {
			return st, nil
		}
		if closed {
			return st, ErrClosed
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-changed:
		}
	}
}

// Reset cancels pending timers and returns the session to the empty phase,
// ready for a new file.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	if !s.closed {
		s.setLocked(Status{Phase: PhaseEmpty})
	}
	done := s.done
	s.done = nil
	s.mu.Unlock()
	waitRun(done)
}

// Close cancels pending timers. A closed session never changes again.
func (s *Session) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if !s.closed {
		s.closed = true
		close(s.changed)
		s.changed = make(chan struct{})
	}
	done := s.done
	s.done = nil
	s.mu.Unlock()
	waitRun(done)
}

func waitRun(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}
