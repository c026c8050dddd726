package xlog

import "go.uber.org/zap"

// Zap adapts a *zap.Logger to the Logger interface.
type Zap struct {
	logger *zap.Logger
}

// NewZap wraps an existing zap.Logger.
func NewZap(logger *zap.Logger) Logger {
	return &Zap{logger: logger}
}

// NewDefault builds a Logger from zap's production config, encoding at
// InfoLevel to stderr in JSON.
func NewDefault() (Logger, error) {
	cfg := zap.NewProductionConfig()
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return NewZap(logger), nil
}

func (z *Zap) Info(msg string, kv ...any)  { z.logger.Sugar().Infow(msg, kv...) }
func (z *Zap) Warn(msg string, kv ...any)  { z.logger.Sugar().Warnw(msg, kv...) }
func (z *Zap) Error(msg string, kv ...any) { z.logger.Sugar().Errorw(msg, kv...) }
