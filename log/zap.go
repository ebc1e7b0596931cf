package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapBackend struct {
	logger *zap.Logger
}

func newZapBackend() *zapBackend {
	return &zapBackend{logger: zap.NewNop()}
}

func (b *zapBackend) setup(cfg Config) error {
	zc := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zc.Build(zap.AddCallerSkip(2))
	if err != nil {
		return err
	}
	b.logger = logger
	return nil
}

func (b *zapBackend) newLogger(tag string) Logger {
	return &zapLogger{sugar: b.logger.Sugar().With("tag", tag)}
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = (*zapLogger)(nil)

func (l *zapLogger) Debugf(f string, v ...interface{}) { l.sugar.Debugf(f, v...) }
func (l *zapLogger) Debug(v ...interface{})            { l.sugar.Debug(v...) }
func (l *zapLogger) Infof(f string, v ...interface{})  { l.sugar.Infof(f, v...) }
func (l *zapLogger) Info(v ...interface{})             { l.sugar.Info(v...) }
func (l *zapLogger) Warnf(f string, v ...interface{})  { l.sugar.Warnf(f, v...) }
func (l *zapLogger) Warn(v ...interface{})             { l.sugar.Warn(v...) }
func (l *zapLogger) Errorf(f string, v ...interface{}) { l.sugar.Errorf(f, v...) }
func (l *zapLogger) Error(v ...interface{})            { l.sugar.Error(v...) }
func (l *zapLogger) Fatalf(f string, v ...interface{}) { l.sugar.Fatalf(f, v...) }
func (l *zapLogger) Fatal(v ...interface{})            { l.sugar.Fatal(v...) }

func (l *zapLogger) With(key string, value interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(key, value)}
}
