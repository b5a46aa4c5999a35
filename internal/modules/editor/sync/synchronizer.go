// Package sync keeps the live editable view and the persisted chapter content
// consistent: debounced autosave, change detection, feedback-loop suppression
// for programmatic loads, and save-status reporting.
package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is the user-visible save state.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Saver persists one chapter's content blob. Implemented by the chapter
// service; tests use an in-memory fake.
type Saver interface {
	SaveContent(ctx context.Context, chapterID, content string) error
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts timer scheduling so tests can drive time explicitly.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Defaults for the tunable windows.
const (
	DefaultDebounce     = 1500 * time.Millisecond
	DefaultStatusWindow = 2 * time.Second
	DefaultGuardWindow  = 50 * time.Millisecond
	saveTimeout         = 10 * time.Second
)

// Options tunes a synchronizer. Zero values take the defaults above.
type Options struct {
	Debounce     time.Duration
	StatusWindow time.Duration
	GuardWindow  time.Duration
	Clock        Clock
	Logger       *zap.Logger
}

// Synchronizer owns the save path for one open chapter. Only it writes the
// persisted copy; the live view pushes changes in through OnLocalChange and
// receives programmatic updates through the apply callback.
type Synchronizer struct {
	chapterID string
	store     Saver
	clock     Clock
	log       *zap.Logger

	debounce     time.Duration
	statusWindow time.Duration
	guardWindow  time.Duration

	mu            sync.Mutex
	pending       string
	hasPending    bool
	lastCommitted string
	guard         int
	status        Status
	closed        bool
	debounceTimer Timer
	statusTimer   Timer

	// commitMu serializes commits: a commit for content version N completes
	// before one for N+1 begins.
	commitMu sync.Mutex

	statusFn func(Status)
	applyFn  func(content string)
}

// New creates a synchronizer for one chapter.
func New(chapterID string, store Saver, opts Options) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.StatusWindow <= 0 {
		opts.StatusWindow = DefaultStatusWindow
	}
	if opts.GuardWindow <= 0 {
		opts.GuardWindow = DefaultGuardWindow
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Synchronizer{
		chapterID:    chapterID,
		store:        store,
		clock:        opts.Clock,
		log:          opts.Logger,
		debounce:     opts.Debounce,
		statusWindow: opts.StatusWindow,
		guardWindow:  opts.GuardWindow,
		status:       StatusIdle,
	}
}

// OnStatus registers the status listener (UI indicator).
func (s *Synchronizer) OnStatus(fn func(Status)) { s.statusFn = fn }

// OnApply registers the callback that pushes externally loaded content into
// the live view.
func (s *Synchronizer) OnApply(fn func(content string)) { s.applyFn = fn }

// ChapterID returns the chapter this synchronizer serves.
func (s *Synchronizer) ChapterID() string { return s.chapterID }

// Status returns the current save status.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastCommitted returns the most recently persisted content.
func (s *Synchronizer) LastCommitted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommitted
}

// OnLocalChange records a change from the live view and (re)starts the
// debounce window. Only the latest content within the window is committed.
// Changes arriving while a programmatic load is being applied are the load's
// own echo and are dropped.
func (s *Synchronizer) OnLocalChange(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.guard > 0 {
		s.log.Debug("suppressed echo of programmatic load", zap.String("chapter", s.chapterID))
		return
	}
	s.pending = content
	s.hasPending = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = s.clock.AfterFunc(s.debounce, s.flush)
}

// Flush commits any pending change immediately, without waiting for the
// debounce window. Used on chapter switch and teardown.
func (s *Synchronizer) Flush() {
	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.mu.Unlock()
	s.flush()
}

func (s *Synchronizer) flush() {
	s.mu.Lock()
	if s.closed || !s.hasPending {
		s.mu.Unlock()
		return
	}
	content := s.pending
	s.hasPending = false
	if content == s.lastCommitted {
		// unchanged content is a no-op: no persistence, no status flicker
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if content == s.lastCommitted {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.setStatus(StatusSaving)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.store.SaveContent(ctx, s.chapterID, content); err != nil {
		// error status is terminal until the next user-triggered change
		s.log.Warn("chapter save failed",
			zap.String("chapter", s.chapterID), zap.Error(err))
		s.setStatus(StatusError)
		return
	}

	s.mu.Lock()
	s.lastCommitted = content
	s.mu.Unlock()
	s.setStatus(StatusSaved)
	s.scheduleStatusReset()
}

// LoadExternal pushes content that changed outside the live view (chapter
// switch, restore) into the view. A guard flag suppresses the resulting view
// change event so it is not mistaken for a fresh local edit; the guard clears
// shortly after, since view event dispatch may be deferred by a tick.
func (s *Synchronizer) LoadExternal(content string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.hasPending = false
	s.guard++
	s.lastCommitted = content
	apply := s.applyFn
	s.mu.Unlock()

	if apply != nil {
		apply(content)
	}

	s.clock.AfterFunc(s.guardWindow, func() {
		s.mu.Lock()
		if s.guard > 0 {
			s.guard--
		}
		s.mu.Unlock()
	})
}

// Close cancels all timers. A closed synchronizer drops everything; a stale
// debounce must never fire against the wrong chapter after a switch.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.statusTimer != nil {
		s.statusTimer.Stop()
		s.statusTimer = nil
	}
}

func (s *Synchronizer) setStatus(st Status) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.status = st
	fn := s.statusFn
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// scheduleStatusReset drops "saved" back to "idle" after the display window.
func (s *Synchronizer) scheduleStatusReset() {
	s.mu.Lock()
	if s.statusTimer != nil {
		s.statusTimer.Stop()
	}
	s.statusTimer = s.clock.AfterFunc(s.statusWindow, func() {
		s.mu.Lock()
		saved := s.status == StatusSaved && !s.closed
		s.mu.Unlock()
		if saved {
			s.setStatus(StatusIdle)
		}
	})
	s.mu.Unlock()
}
