// Package chapter persists chapter records and implements the editor
// session's store boundary.
package chapter

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookforge/core/internal/models"
	"github.com/bookforge/core/internal/modules/editor/session"
	"github.com/bookforge/core/internal/pkg/response"
)

type CreateChapterDTO struct {
	BookID   string `json:"bookId" binding:"required"`
	ParentID string `json:"parentId"`
	Title    string `json:"title"`
}

type UpdateChapterDTO struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type chapterResponse struct {
	ID       string    `json:"id"`
	BookID   string    `json:"bookId"`
	ParentID string    `json:"parentId"`
	Title    string    `json:"title"`
	Content  string    `json:"content,omitempty"`
	Order    int       `json:"order"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func toResponse(ch *models.ChapterModel, withContent bool) chapterResponse {
	r := chapterResponse{
		ID: ch.ID, BookID: ch.BookID, ParentID: ch.ParentID,
		Title: ch.Title, Order: ch.SortOrder,
		Created: ch.CreatedAt, Modified: ch.UpdatedAt,
	}
	if withContent {
		r.Content = ch.Content
	}
	return r
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// List returns the book's chapters in outline order.
func (s *Service) List(ctx context.Context, bookID string) ([]session.Chapter, error) {
	var rows []models.ChapterModel
	err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("sort_order ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	chapters := make([]session.Chapter, len(rows))
	for i, row := range rows {
		chapters[i] = toSessionChapter(&row)
	}
	return chapters, nil
}

func (s *Service) Get(ctx context.Context, id string) (*session.Chapter, error) {
	row, err := s.getModel(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	ch := toSessionChapter(row)
	return &ch, nil
}

func (s *Service) Create(ctx context.Context, bookID, title string) (*session.Chapter, error) {
	return s.CreateUnder(ctx, bookID, "", title)
}

// CreateUnder appends a chapter at the end of the outline, optionally as a
// child of parentID.
func (s *Service) CreateUnder(ctx context.Context, bookID, parentID, title string) (*session.Chapter, error) {
	if title == "" {
		title = session.DefaultChapterTitle
	}
	var maxOrder int
	err := s.db.WithContext(ctx).
		Model(&models.ChapterModel{}).
		Where("book_id = ?", bookID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&maxOrder).Error
	if err != nil {
		return nil, err
	}

	row := models.ChapterModel{
		BookID: bookID, ParentID: parentID,
		Title: title, SortOrder: maxOrder + 1,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	ch := toSessionChapter(&row)
	return &ch, nil
}

func (s *Service) Rename(ctx context.Context, id, title string) error {
	return s.db.WithContext(ctx).
		Model(&models.ChapterModel{}).
		Where("id = ?", id).
		Update("title", title).Error
}

// Delete removes the chapter and its direct children only. Grandchildren
// keep their rows and surface at the top level of the outline.
func (s *Service) Delete(ctx context.Context, id string) ([]string, error) {
	removed := []string{id}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var children []models.ChapterModel
		if err := tx.Select("id").Where("parent_id = ?", id).Find(&children).Error; err != nil {
			return err
		}
		for _, child := range children {
			removed = append(removed, child.ID)
		}
		return tx.Delete(&models.ChapterModel{}, "id IN ?", removed).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Service) SaveContent(ctx context.Context, id, content string) error {
	return s.db.WithContext(ctx).
		Model(&models.ChapterModel{}).
		Where("id = ?", id).
		Update("content", content).Error
}

func (s *Service) Reorder(ctx context.Context, id string, order int) error {
	return s.db.WithContext(ctx).
		Model(&models.ChapterModel{}).
		Where("id = ?", id).
		Update("sort_order", order).Error
}

func (s *Service) getModel(ctx context.Context, id string) (*models.ChapterModel, error) {
	var row models.ChapterModel
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func toSessionChapter(row *models.ChapterModel) session.Chapter {
	return session.Chapter{
		ID: row.ID, ParentID: row.ParentID,
		Title: row.Title, Content: row.Content,
		Order:     row.SortOrder,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/chapters", authMW)
	g.GET("/book/:bookId", h.listByBook)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PATCH("/reorder", h.reorder)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) listByBook(c *gin.Context) {
	chapters, err := h.svc.List(c.Request.Context(), c.Param("bookId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	items := make([]chapterResponse, len(chapters))
	for i, ch := range chapters {
		items[i] = chapterResponse{
			ID: ch.ID, ParentID: ch.ParentID, Title: ch.Title,
			Order: ch.Order, Created: ch.CreatedAt, Modified: ch.UpdatedAt,
		}
	}
	response.OK(c, items)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.svc.getModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if row == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(row, true))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateChapterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ch, err := h.svc.CreateUnder(c.Request.Context(), dto.BookID, dto.ParentID, dto.Title)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, chapterResponse{
		ID: ch.ID, BookID: dto.BookID, ParentID: ch.ParentID,
		Title: ch.Title, Order: ch.Order,
		Created: ch.CreatedAt, Modified: ch.UpdatedAt,
	})
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateChapterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	row, err := h.svc.getModel(ctx, id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if row == nil {
		response.NotFound(c)
		return
	}
	if dto.Title != nil {
		if err := h.svc.Rename(ctx, id, *dto.Title); err != nil {
			response.InternalError(c, err)
			return
		}
	}
	if dto.Content != nil {
		if err := h.svc.SaveContent(ctx, id, *dto.Content); err != nil {
			response.InternalError(c, err)
			return
		}
	}
	row, err = h.svc.getModel(ctx, id)
	if err != nil || row == nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toResponse(row, true))
}

func (h *Handler) delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

type reorderDTO struct {
	IDs []string `json:"ids" binding:"required"`
}

// PATCH /chapters/reorder — outline order follows the submitted id order
func (h *Handler) reorder(c *gin.Context) {
	var dto reorderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	for i, id := range dto.IDs {
		if err := h.svc.Reorder(ctx, id, i); err != nil {
			response.InternalError(c, err)
			return
		}
	}
	response.NoContent(c)
}
