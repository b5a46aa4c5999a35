package book

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookforge/core/internal/middleware"
	"github.com/bookforge/core/internal/models"
	"github.com/bookforge/core/internal/pkg/pagination"
	"github.com/bookforge/core/internal/pkg/response"
)

type CreateBookDTO struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
}

type UpdateBookDTO struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	CoverURL    *string `json:"coverUrl"`
}

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl"`
	Chapters    int       `json:"chapterCount"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

func toResponse(b *models.BookModel, chapterCount int) bookResponse {
	return bookResponse{
		ID: b.ID, Title: b.Title, Author: b.Author,
		Description: b.Description, CoverURL: b.CoverURL,
		Chapters: chapterCount,
		Created:  b.CreatedAt, Modified: b.UpdatedAt,
	}
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(q pagination.Query) ([]models.BookModel, response.Pagination, error) {
	tx := s.db.Model(&models.BookModel{}).Order("updated_at DESC")
	var books []models.BookModel
	pag, err := pagination.Paginate(tx, q, &books)
	return books, pag, err
}

func (s *Service) GetByID(id string) (*models.BookModel, error) {
	var b models.BookModel
	if err := s.db.First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *Service) ChapterCount(bookID string) int {
	var count int64
	s.db.Model(&models.ChapterModel{}).Where("book_id = ?", bookID).Count(&count)
	return int(count)
}

func (s *Service) Create(ownerID string, dto *CreateBookDTO) (*models.BookModel, error) {
	b := models.BookModel{
		Title: dto.Title, Author: dto.Author,
		Description: dto.Description, CoverURL: dto.CoverURL,
		OwnerID: ownerID,
	}
	return &b, s.db.Create(&b).Error
}

func (s *Service) Update(id string, dto *UpdateBookDTO) (*models.BookModel, error) {
	b, err := s.GetByID(id)
	if err != nil || b == nil {
		return b, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Author != nil {
		updates["author"] = *dto.Author
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.CoverURL != nil {
		updates["cover_url"] = *dto.CoverURL
	}
	if len(updates) == 0 {
		return b, nil
	}
	if err := s.db.Model(b).Updates(updates).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the book and every chapter belonging to it.
func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ChapterModel{}, "book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BookModel{}, "id = ?", id).Error
	})
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/books", authMW)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	books, pag, err := h.svc.List(q)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	items := make([]bookResponse, len(books))
	for i, b := range books {
		items[i] = toResponse(&b, h.svc.ChapterCount(b.ID))
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(b, h.svc.ChapterCount(b.ID)))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateBookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.Create(middleware.UserID(c), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, toResponse(b, 0))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateBookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(b, h.svc.ChapterCount(b.ID)))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
