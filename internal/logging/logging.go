// Package logging builds the zap logger shared by every component.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
)

// New returns a JSON production logger, or a console logger at debug level
// when cfg.Debug is set.
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc.Build()
	}

	zc := zap.NewProductionConfig()
	zc.Sampling = nil
	return zc.Build()
}
