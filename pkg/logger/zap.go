package logger

import (
	"log"

	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	logger *zap.SugaredLogger
}

var _ Logger = (*ZapLogger)(nil)

func NewZapLogger(cfg config.Logger) *ZapLogger {
	zapConfig := newZapConfig(cfg.Format)
	zapConfig.Level = zap.NewAtomicLevelAt(toZapLevel(cfg.Level))

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	)
	if err != nil {
		log.Fatal("error occurred while building zap logger: ", err)
	}

	return &ZapLogger{
		logger: logger.Sugar(),
	}
}

// NewZapLoggerFrom wraps an existing zap logger, e.g. one built on an observer core in tests.
func NewZapLoggerFrom(l *zap.Logger) *ZapLogger {
	return &ZapLogger{
		logger: l.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func newZapConfig(format string) zap.Config {
	if format == "json" {
		c := zap.NewProductionConfig()
		c.EncoderConfig.TimeKey = "time"
		c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		c.Sampling = nil
		return c
	}

	c := zap.NewDevelopmentConfig()
	c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	c.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	c.EncoderConfig.CallerKey = "caller"
	c.DisableCaller = false
	return c
}

func toZapLevel(levelStr string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		log.Printf("WARN (toZapLevel): unknown log level %q - using INFO level", levelStr)
		return zapcore.InfoLevel
	}
	return level
}

// Named returns a logger whose entries carry the component name.
func (l *ZapLogger) Named(component string) *ZapLogger {
	return &ZapLogger{logger: l.logger.Named(component)}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Fatalw(msg, keysAndValues...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
