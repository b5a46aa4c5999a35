package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookforge/core/internal/middleware"
	"github.com/bookforge/core/internal/modules/content/book"
	"github.com/bookforge/core/internal/modules/content/chapter"
	"github.com/bookforge/core/internal/modules/editor"
	"github.com/bookforge/core/internal/modules/export"
	"github.com/bookforge/core/internal/modules/export/pipeline"
	mathpkg "github.com/bookforge/core/internal/modules/processing/math"
	"github.com/bookforge/core/internal/modules/storage/file"
	"github.com/bookforge/core/internal/modules/user"
	"github.com/bookforge/core/internal/pkg/qrcode"
	pkgredis "github.com/bookforge/core/internal/pkg/redis"
	"github.com/bookforge/core/internal/pkg/response"
	"github.com/bookforge/core/internal/pkg/taskqueue"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			"ok": 0, "code": http.StatusMethodNotAllowed, "message": "method not allowed",
		})
	})

	appInfo := gin.H{
		"name":     "bookforge-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/bookforge/core",
	}

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth())
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:       15 * time.Second,
		Disable:   a.cfg.IsDev(),
		SkipPaths: httpCacheSkipPaths(apiPrefix),
	}))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(a.startTime()).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	// Cron job admin
	api.GET("/cron", authMW, func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	api.GET("/cron/:name", authMW, func(c *gin.Context) {
		result, err := a.sched.GetTask(c.Param("name"))
		if err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.OK(c, result)
	})
	api.POST("/cron/:name/run", authMW, func(c *gin.Context) {
		if err := a.sched.Run(c.Request.Context(), c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.NoContent(c)
	})

	// Content cache admin, for after bulk edits or imports
	api.DELETE("/cache", authMW, func(c *gin.Context) {
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), rc.Raw())
		if err != nil {
			response.InternalError(c, err)
			return
		}
		response.OK(c, gin.H{"deleted": deleted})
	})

	// Auth & user
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)

	// Content
	chapterSvc := chapter.NewService(db)
	book.NewHandler(book.NewService(db)).RegisterRoutes(api, authMW)
	chapter.NewHandler(chapterSvc).RegisterRoutes(api, authMW)

	// Editor operations
	editorSettings := editor.Settings{
		DebounceMS:     a.cfg.Editor.DebounceMS,
		StatusWindowMS: a.cfg.Editor.StatusWindowMS,
	}
	editor.NewHandler(chapterSvc, editorSettings, a.logger.Named("editor")).RegisterRoutes(api, authMW)

	// Export pipeline
	taskSvc := taskqueue.NewService(rc)
	exportPipeline := pipeline.New(
		qrcode.PNG{Size: 256},
		mathpkg.MathML{},
		a.logger.Named("export"),
	)
	exportSvc := export.NewService(db, taskSvc, exportPipeline, a.cfg.Paths.Exports, a.logger.Named("export"))
	export.NewHandler(exportSvc).RegisterRoutes(api, authMW)

	// Uploads
	file.NewHandler(db, a.cfg.Paths.Static).RegisterRoutes(api, authMW)
}

func httpCacheSkipPaths(prefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if p == "" {
		p = "/api/v1"
	}
	return []string{
		p + "/uptime",
		p + "/cron",
		p + "/user",
		p + "/exports",
		p + "/exports/",
		p + "/editor/*",
		p + "/chapters/*",
	}
}
