// Package editor exposes entity operations over HTTP: each request loads
// the chapter's content, applies one controller action, and persists the
// reserialized result.
package editor

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookforge/core/internal/modules/content/chapter"
	"github.com/bookforge/core/internal/modules/editor/document"
	"github.com/bookforge/core/internal/modules/editor/entity"
	"github.com/bookforge/core/internal/modules/processing/embedlink"
	"github.com/bookforge/core/internal/modules/processing/markdown"
	"github.com/bookforge/core/internal/pkg/response"
)

// Settings are the engine timings clients schedule their autosave around.
type Settings struct {
	DebounceMS     int `json:"debounce_ms"`
	StatusWindowMS int `json:"status_window_ms"`
}

type Handler struct {
	chapters *chapter.Service
	settings Settings
	log      *zap.Logger
}

func NewHandler(chapters *chapter.Service, settings Settings, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{chapters: chapters, settings: settings, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/editor", authMW)
	g.GET("/settings", h.getSettings)
	g.POST("/chapters/:id/entities/:entityId", h.applyOp)
	g.POST("/chapters/:id/import", h.importMarkdown)
	g.POST("/embeds/resolve", h.resolveEmbed)
}

func (h *Handler) getSettings(c *gin.Context) {
	response.OK(c, h.settings)
}

type entityOpDTO struct {
	Op        string   `json:"op" binding:"required"`
	Direction string   `json:"direction"`
	Grid      bool     `json:"grid"`
	Factor    *float64 `json:"factor"`
	Preset    string   `json:"preset"`
	Ratio     string   `json:"ratio"`
	Degrees   *int     `json:"degrees"`
	Percent   *int     `json:"percent"`
	Pixels    *int     `json:"pixels"`
	Delta     *int     `json:"delta"`
	Alignment string   `json:"alignment"`
}

type opResult struct {
	Content string                 `json:"content"`
	Entity  *document.MediaEntity  `json:"entity,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// applyOp runs one entity action against chapter content and saves the
// result. Content is the single source of truth, so every edit round-trips
// through parse and serialize.
func (h *Handler) applyOp(c *gin.Context) {
	var dto entityOpDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	chapterID := c.Param("id")
	entityID := c.Param("entityId")

	ch, err := h.chapters.Get(ctx, chapterID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if ch == nil {
		response.NotFound(c)
		return
	}

	doc := document.Parse(ch.Content)
	if doc.FindEntity(entityID) == nil {
		response.NotFound(c)
		return
	}

	ctrl := entity.NewController(doc, entity.NopAdapter{}, h.log)
	ctrl.SetGridSnap(dto.Grid)
	if dto.Ratio != "" {
		ctrl.SetAspectRatio(entity.AspectRatio(dto.Ratio))
	}
	ctrl.Select(entityID)

	result, err := applyOperation(ctrl, &dto)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	content := doc.Serialize()
	if err := h.chapters.SaveContent(ctx, chapterID, content); err != nil {
		response.InternalError(c, err)
		return
	}

	result.Content = content
	if result.Entity == nil {
		result.Entity = doc.FindEntity(entityID)
	}
	response.OK(c, result)
}

func applyOperation(ctrl *entity.Controller, dto *entityOpDTO) (*opResult, error) {
	switch dto.Op {
	case "move":
		dir := entity.MoveDirection(dto.Direction)
		switch dir {
		case entity.MoveUp, entity.MoveDown, entity.MoveLeft, entity.MoveRight:
			ctrl.Move(dir)
		default:
			return nil, fmt.Errorf("unknown move direction %q", dto.Direction)
		}
	case "resize":
		if dto.Factor == nil || *dto.Factor <= 0 {
			return nil, fmt.Errorf("resize requires a positive factor")
		}
		ctrl.Resize(*dto.Factor)
	case "quick-resize":
		preset := entity.SizePreset(dto.Preset)
		switch preset {
		case entity.SizeSmall, entity.SizeMedium, entity.SizeLarge, entity.SizeFull:
			ctrl.QuickResize(preset)
		default:
			return nil, fmt.Errorf("unknown size preset %q", dto.Preset)
		}
	case "rotate":
		if dto.Degrees == nil {
			return nil, fmt.Errorf("rotate requires degrees")
		}
		ctrl.Rotate(*dto.Degrees)
	case "opacity":
		if dto.Percent == nil {
			return nil, fmt.Errorf("opacity requires percent")
		}
		ctrl.SetOpacity(*dto.Percent)
	case "border-radius":
		if dto.Pixels == nil {
			return nil, fmt.Errorf("border-radius requires pixels")
		}
		ctrl.SetBorderRadius(*dto.Pixels)
	case "z-index":
		if dto.Delta == nil {
			return nil, fmt.Errorf("z-index requires delta")
		}
		ctrl.AdjustZIndex(*dto.Delta)
	case "align":
		switch a := document.Alignment(dto.Alignment); a {
		case document.AlignLeft, document.AlignCenter, document.AlignRight, document.AlignNone:
			ctrl.SetAlignment(a)
		default:
			return nil, fmt.Errorf("unknown alignment %q", dto.Alignment)
		}
	case "duplicate":
		clone := ctrl.Duplicate()
		if clone == nil {
			return nil, fmt.Errorf("duplicate failed")
		}
		return &opResult{Entity: clone}, nil
	case "delete":
		ctrl.Delete()
		return &opResult{Extra: map[string]interface{}{"deleted": true}}, nil
	case "reset":
		ctrl.Reset()
	default:
		return nil, fmt.Errorf("unknown entity operation %q", dto.Op)
	}
	return &opResult{}, nil
}

type importDTO struct {
	Markdown string `json:"markdown" binding:"required"`
	Append   bool   `json:"append"`
}

// importMarkdown converts Markdown to editor HTML and stores it as the
// chapter's content, optionally appended to what is already there.
func (h *Handler) importMarkdown(c *gin.Context) {
	var dto importDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	chapterID := c.Param("id")

	ch, err := h.chapters.Get(ctx, chapterID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if ch == nil {
		response.NotFound(c)
		return
	}

	imported := markdown.Import(dto.Markdown)
	content := imported
	if dto.Append && ch.Content != "" {
		content = ch.Content + imported
	}
	// normalize through the document model so stored content is canonical
	content = document.Parse(content).Serialize()

	if err := h.chapters.SaveContent(ctx, chapterID, content); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"content": content})
}

type resolveEmbedDTO struct {
	URL string `json:"url" binding:"required,url"`
}

// resolveEmbed rewrites a pasted share URL into its embeddable player form
// so the client can insert it as an embed entity.
func (h *Handler) resolveEmbed(c *gin.Context) {
	var dto resolveEmbedDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, gin.H{
		"kind":     embedlink.DetectKind(dto.URL),
		"embedUrl": embedlink.ToEmbedURL(dto.URL),
	})
}
