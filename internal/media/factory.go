package media

import (
	"context"
	"log/slog"

	"github.com/olegiv/uphouse/internal/config"
)

// New returns the gateway selected by cfg, or Unconfigured when the
// selected host lacks credentials or cannot be initialized.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) Gateway {
	if !cfg.MediaConfigured() {
		logger.Warn("media host not configured, uploads disabled", "host", cfg.MediaHost)
		return Unconfigured{}
	}

	if cfg.MediaHost == config.MediaS3 {
		gw, err := NewS3(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.S3PublicURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logger.Error("media host init failed, uploads disabled", "host", cfg.MediaHost, "error", err)
			return Unconfigured{}
		}
		logger.Info("media host ready", "host", cfg.MediaHost, "bucket", cfg.S3Bucket)
		return gw
	}

	logger.Info("media host ready", "host", cfg.MediaHost, "cloud", cfg.CloudinaryCloudName)
	return NewCloudinary(cfg.CloudinaryAPIURL, cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, nil)
}
