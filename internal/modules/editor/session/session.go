// Package session ties one open book's editing state together: the ordered
// chapter list, the selected chapter, and the synchronizer/controller pair
// serving it. One session per open document; there is no process-wide editor
// singleton.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bookforge/core/internal/modules/editor/document"
	"github.com/bookforge/core/internal/modules/editor/entity"
	syncpkg "github.com/bookforge/core/internal/modules/editor/sync"
)

// DefaultChapterTitle is the title given by the add-chapter action.
const DefaultChapterTitle = "New Chapter"

// Chapter is the store-facing chapter record.
type Chapter struct {
	ID        string
	ParentID  string
	Title     string
	Content   string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the persisted chapter boundary. The gorm-backed chapter service
// implements it; tests use an in-memory fake.
type Store interface {
	List(ctx context.Context, bookID string) ([]Chapter, error)
	Get(ctx context.Context, id string) (*Chapter, error)
	Create(ctx context.Context, bookID, title string) (*Chapter, error)
	Rename(ctx context.Context, id, title string) error
	// Delete removes the chapter and any chapter whose parent id equals it
	// (one level only), returning all removed ids.
	Delete(ctx context.Context, id string) ([]string, error)
	SaveContent(ctx context.Context, id, content string) error
}

// Options tunes the session's synchronizers.
type Options struct {
	Debounce     time.Duration
	StatusWindow time.Duration
	Clock        syncpkg.Clock
	Logger       *zap.Logger
}

// Session is the editing state for one open book.
type Session struct {
	bookID string
	store  Store
	log    *zap.Logger
	opts   Options

	chapters []Chapter
	selected string
	syncer   *syncpkg.Synchronizer
	statusFn func(syncpkg.Status)
}

// Open loads the book's chapters and selects the first one, if any.
func Open(ctx context.Context, bookID string, store Store, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Session{bookID: bookID, store: store, log: opts.Logger, opts: opts}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if len(s.chapters) > 0 {
		if err := s.SelectChapter(ctx, s.chapters[0].ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OnStatus registers the save-status listener applied to every chapter's
// synchronizer.
func (s *Session) OnStatus(fn func(syncpkg.Status)) {
	s.statusFn = fn
	if s.syncer != nil {
		s.syncer.OnStatus(fn)
	}
}

// Chapters returns the ordered chapter list.
func (s *Session) Chapters() []Chapter { return s.chapters }

// Selected returns the selected chapter id, or "" when none.
func (s *Session) Selected() string { return s.selected }

// Synchronizer returns the synchronizer for the selected chapter, or nil.
func (s *Session) Synchronizer() *syncpkg.Synchronizer { return s.syncer }

// AddChapter creates a chapter with the default title and empty content,
// appends it and selects it.
func (s *Session) AddChapter(ctx context.Context) (*Chapter, error) {
	ch, err := s.store.Create(ctx, s.bookID, DefaultChapterTitle)
	if err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if err := s.SelectChapter(ctx, ch.ID); err != nil {
		return nil, err
	}
	return ch, nil
}

// SelectChapter switches the editing focus. Pending saves for the previous
// chapter are flushed and its synchronizer torn down before the new chapter's
// content loads through the guarded path.
func (s *Session) SelectChapter(ctx context.Context, id string) error {
	if s.selected == id {
		return nil
	}
	ch, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load chapter: %w", err)
	}
	if ch == nil {
		s.log.Info("select of unknown chapter ignored", zap.String("chapter", id))
		return nil
	}

	s.teardownSyncer()

	s.selected = id
	s.syncer = syncpkg.New(id, s.store, syncpkg.Options{
		Debounce:     s.opts.Debounce,
		StatusWindow: s.opts.StatusWindow,
		Clock:        s.opts.Clock,
		Logger:       s.log,
	})
	if s.statusFn != nil {
		s.syncer.OnStatus(s.statusFn)
	}
	s.syncer.LoadExternal(ch.Content)
	return nil
}

// DeleteChapter removes a chapter (cascading one level to its direct
// children) and clears or retargets selection.
func (s *Session) DeleteChapter(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if err := s.refresh(ctx); err != nil {
		return err
	}

	selectionGone := false
	for _, rid := range removed {
		if rid == s.selected {
			selectionGone = true
			break
		}
	}
	if selectionGone {
		s.teardownSyncer()
		s.selected = ""
		if len(s.chapters) > 0 {
			return s.SelectChapter(ctx, s.chapters[0].ID)
		}
	}
	return nil
}

// RenameChapter updates a chapter title.
func (s *Session) RenameChapter(ctx context.Context, id, title string) error {
	if err := s.store.Rename(ctx, id, title); err != nil {
		return fmt.Errorf("rename chapter: %w", err)
	}
	return s.refresh(ctx)
}

// EditSelected parses the selected chapter's persisted content and returns an
// entity controller wired into the synchronizer: every committed entity
// mutation re-serializes the document and feeds the debounced save path.
func (s *Session) EditSelected(ctx context.Context, view entity.ViewAdapter) (*entity.Controller, error) {
	if s.selected == "" {
		return nil, fmt.Errorf("no chapter selected")
	}
	ch, err := s.store.Get(ctx, s.selected)
	if err != nil {
		return nil, fmt.Errorf("load chapter: %w", err)
	}
	if ch == nil {
		return nil, fmt.Errorf("chapter %s not found", s.selected)
	}

	doc := document.Parse(ch.Content)
	ctrl := entity.NewController(doc, view, s.log)
	syncer := s.syncer
	ctrl.OnChange(func() {
		syncer.OnLocalChange(doc.Serialize())
	})
	return ctrl, nil
}

// Close flushes pending work and tears the session down.
func (s *Session) Close() {
	s.teardownSyncer()
	s.selected = ""
}

func (s *Session) teardownSyncer() {
	if s.syncer == nil {
		return
	}
	s.syncer.Flush()
	s.syncer.Close()
	s.syncer = nil
}

func (s *Session) refresh(ctx context.Context) error {
	chapters, err := s.store.List(ctx, s.bookID)
	if err != nil {
		return fmt.Errorf("list chapters: %w", err)
	}
	s.chapters = chapters
	return nil
}
