package app

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookforge/core/internal/config"
	jwtpkg "github.com/bookforge/core/internal/pkg/jwt"
	"github.com/bookforge/core/internal/pkg/nativelog"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) {
	_ = os.Setenv(nativelog.EnvLogDir, cfg.Paths.Logs)

	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
