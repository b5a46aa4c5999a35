// Package export runs book exports as background tasks and serves the
// resulting artifacts.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookforge/core/internal/models"
	"github.com/bookforge/core/internal/modules/export/pipeline"
	"github.com/bookforge/core/internal/pkg/response"
	"github.com/bookforge/core/internal/pkg/taskqueue"
)

const TaskTypeExport = "export"

type ExportPayload struct {
	BookID string          `json:"book_id"`
	Target pipeline.Target `json:"target"`
}

type ExportResult struct {
	File        string `json:"file"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type Service struct {
	db       *gorm.DB
	taskSvc  *taskqueue.Service
	pipeline *pipeline.Pipeline
	dir      string
	log      *zap.Logger
}

func NewService(db *gorm.DB, taskSvc *taskqueue.Service, p *pipeline.Pipeline, dir string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, taskSvc: taskSvc, pipeline: p, dir: dir, log: log}
}

// Enqueue creates an export task, deduplicating on book and target so a
// double-click does not render the same book twice.
func (s *Service) Enqueue(ctx context.Context, bookID string, target pipeline.Target) (*taskqueue.Task, error) {
	var book models.BookModel
	if err := s.db.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("book not found")
		}
		return nil, err
	}

	payload := ExportPayload{BookID: bookID, Target: target}
	dedup := fmt.Sprintf("%s:%s", bookID, target)
	task, err := s.taskSvc.Enqueue(ctx, TaskTypeExport, payload, dedup, bookID)
	if err != nil {
		return nil, err
	}

	// Execute immediately in a goroutine (in production use a worker pool)
	if task.Status == taskqueue.TaskPending {
		go s.execute(context.Background(), task.ID, payload)
	}
	return task, nil
}

func (s *Service) execute(ctx context.Context, taskID string, payload ExportPayload) {
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, "")

	book, err := s.loadBook(ctx, payload.BookID)
	if err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	result, err := s.pipeline.Export(*book, payload.Target)
	if err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}
	name := fmt.Sprintf("%s-%s.%s", payload.BookID, taskID, result.Extension)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	s.log.Info("export finished",
		zap.String("book", payload.BookID),
		zap.String("target", string(payload.Target)),
		zap.Int("bytes", len(result.Data)))

	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, ExportResult{
		File:        name,
		Size:        int64(len(result.Data)),
		ContentType: result.ContentType,
	}, "")
}

// loadBook assembles the pipeline's view of a book: metadata plus chapters
// in outline order.
func (s *Service) loadBook(ctx context.Context, bookID string) (*pipeline.Book, error) {
	var book models.BookModel
	if err := s.db.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		return nil, fmt.Errorf("book not found")
	}

	var rows []models.ChapterModel
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("sort_order ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := pipeline.Book{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Chapters:    make([]pipeline.Chapter, len(rows)),
	}
	for i, row := range rows {
		out.Chapters[i] = pipeline.Chapter{Title: row.Title, Content: row.Content}
	}
	return &out, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/exports", authMW)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/download", h.download)
	g.DELETE("/:id", h.delete)
}

type createExportDTO struct {
	BookID string `json:"bookId" binding:"required"`
	Target string `json:"target" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var dto createExportDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	target, err := pipeline.ParseTarget(dto.Target)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	task, err := h.svc.Enqueue(c.Request.Context(), dto.BookID, target)
	if err != nil {
		if err.Error() == "book not found" {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, task)
}

func (h *Handler) list(c *gin.Context) {
	taskType := TaskTypeExport
	tasks, total, err := h.svc.taskSvc.List(c.Request.Context(), 1, 50, &taskType, nil)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"tasks": tasks, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	task, err := h.svc.taskSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil || task.Type != TaskTypeExport {
		response.NotFound(c)
		return
	}
	response.OK(c, task)
}

func (h *Handler) download(c *gin.Context) {
	task, err := h.svc.taskSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if task == nil || task.Type != TaskTypeExport || task.Status != taskqueue.TaskCompleted {
		response.NotFound(c)
		return
	}
	var result ExportResult
	if err := json.Unmarshal(task.Result, &result); err != nil {
		response.InternalError(c, err)
		return
	}
	path := filepath.Join(h.svc.dir, filepath.Base(result.File))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.File))
	c.Header("Content-Type", result.ContentType)
	c.File(path)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.taskSvc.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}
