package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bookforge/core/internal/models"
	pkgcron "github.com/bookforge/core/internal/pkg/cron"
	pkgredis "github.com/bookforge/core/internal/pkg/redis"
	"github.com/bookforge/core/internal/pkg/taskqueue"
)

const (
	exportTaskRetention = 7 * 24 * time.Hour
	exportFileRetention = 30 * 24 * time.Hour
	chapterPurgeAfter   = 30 * 24 * time.Hour
)

// registerCronJobs registers all scheduled background jobs.
func (a *App) registerCronJobs(rc *pkgredis.Client) {
	taskSvc := taskqueue.NewService(rc)
	cronLogger := a.logger.Named("cron")

	a.sched.Register(pkgcron.Job{
		Name:        "cleanup_export_tasks",
		Description: "remove completed export tasks older than 7 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().Add(-exportTaskRetention).UnixMilli()
			if err := taskSvc.DeleteCompleted(ctx, cutoff); err != nil {
				cronLogger.Warn("export task cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info("export task cleanup done")
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "cleanup_export_files",
		Description: "delete generated export files older than 30 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			removed, err := removeStaleFiles(a.cfg.Paths.Exports, exportFileRetention)
			if err != nil {
				cronLogger.Warn("export file cleanup failed", zap.Error(err))
				return err
			}
			if removed > 0 {
				cronLogger.Info(fmt.Sprintf("export file cleanup done, removed %d files", removed))
			}
			return nil
		},
	})

	a.sched.Register(pkgcron.Job{
		Name:        "purge_deleted_chapters",
		Description: "hard-delete chapters soft-deleted more than 30 days ago",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().Add(-chapterPurgeAfter)
			result := a.db.WithContext(ctx).Unscoped().
				Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
				Delete(&models.ChapterModel{})
			if result.Error != nil {
				cronLogger.Warn("chapter purge failed", zap.Error(result.Error))
				return result.Error
			}
			if result.RowsAffected > 0 {
				cronLogger.Info(fmt.Sprintf("chapter purge done, removed %d rows", result.RowsAffected))
			}
			return nil
		},
	})
}

func removeStaleFiles(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
