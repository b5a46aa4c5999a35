// Package file stores uploaded book assets on disk and tracks them in the
// database so editor content can reference them by URL.
package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookforge/core/internal/middleware"
	"github.com/bookforge/core/internal/models"
	"github.com/bookforge/core/internal/pkg/pagination"
	"github.com/bookforge/core/internal/pkg/response"
)

type Handler struct {
	db        *gorm.DB
	staticDir string
}

func NewHandler(db *gorm.DB, staticDir string) *Handler {
	if staticDir == "" {
		staticDir = filepath.Join(".", "static")
	}
	return &Handler{db: db, staticDir: staticDir}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/files")
	g.POST("/upload", authMW, h.upload)
	g.GET("", authMW, h.list)
	g.GET("/:name", h.get)
	g.DELETE("/:name", authMW, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	filename := buildFileName(fileHeader.Filename)
	if err := os.MkdirAll(h.staticDir, 0o755); err != nil {
		response.InternalError(c, err)
		return
	}
	savePath := filepath.Join(h.staticDir, filename)
	if err := c.SaveUploadedFile(fileHeader, savePath); err != nil {
		response.InternalError(c, err)
		return
	}

	record := models.FileModel{
		Name:         filename,
		OriginalName: filepath.Base(fileHeader.Filename),
		MIME:         fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		OwnerID:      middleware.UserID(c),
	}
	if err := h.db.Create(&record).Error; err != nil {
		_ = os.Remove(savePath)
		response.InternalError(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":   record.ID,
		"name": filename,
		"url":  "/files/" + filename,
		"size": record.Size,
	})
}

func (h *Handler) list(c *gin.Context) {
	q := pagination.FromContext(c)
	tx := h.db.Model(&models.FileModel{}).Order("created_at DESC")

	var files []models.FileModel
	pag, err := pagination.Paginate(tx, q, &files)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	items := make([]gin.H, 0, len(files))
	for _, f := range files {
		items = append(items, gin.H{
			"id":           f.ID,
			"name":         f.Name,
			"originalName": f.OriginalName,
			"url":          "/files/" + f.Name,
			"mime":         f.MIME,
			"size":         f.Size,
			"created":      f.CreatedAt,
		})
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	name := safeName(c.Param("name"))
	if name == "" {
		response.NotFound(c)
		return
	}
	path := filepath.Join(h.staticDir, name)
	if _, err := os.Stat(path); err != nil {
		response.NotFound(c)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.File(path)
}

func (h *Handler) delete(c *gin.Context) {
	name := safeName(c.Param("name"))
	if name == "" {
		response.BadRequest(c, "invalid file name")
		return
	}
	_ = os.Remove(filepath.Join(h.staticDir, name))
	if err := h.db.Where("name = ?", name).Delete(&models.FileModel{}).Error; err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func buildFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 {
		ext = ".dat"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:18] + ext
}

func safeName(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return ""
	}
	return name
}
