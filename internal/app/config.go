package app

import (
	"github.com/bilyfoster/librelog-backend/internal/platform/envutil"
	"github.com/bilyfoster/librelog-backend/internal/platform/logger"
	"github.com/bilyfoster/librelog-backend/internal/services"
)

type Config struct {
	ServiceName  string
	QCMaxWorkers int
	QCPolicy     services.QCPolicy
}

func LoadConfig(log *logger.Logger) Config {
	policy := services.DefaultQCPolicy()
	if path := envutil.String("QC_POLICY_FILE", ""); path != "" {
		loaded, err := services.LoadQCPolicyFile(path)
		if err != nil {
			log.Warn("QC policy file load failed, keeping defaults", "path", path, "error", err)
		} else {
			policy = loaded
			log.Info("QC policy file loaded", "path", path)
		}
	}
	policy.SilenceThresholdDB = envutil.Float("QC_SILENCE_THRESHOLD_DB", policy.SilenceThresholdDB)
	policy.MinVolumeDB = envutil.Float("QC_MIN_VOLUME_DB", policy.MinVolumeDB)
	policy.ClipAmplitude = envutil.Float("QC_CLIP_AMPLITUDE", policy.ClipAmplitude)

	return Config{
		ServiceName:  envutil.String("SERVICE_NAME", "librelog-backend"),
		QCMaxWorkers: envutil.Int("QC_MAX_WORKERS", 4),
		QCPolicy:     policy,
	}
}
