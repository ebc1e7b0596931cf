package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type logrusBackend struct {
	logger *logrus.Logger
}

func newLogrusBackend() *logrusBackend {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	return &logrusBackend{logger: l}
}

func (b *logrusBackend) setup(cfg Config) error {
	if cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		b.logger.SetLevel(level)
	}
	switch cfg.Format {
	case "json":
		b.logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		b.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// SetOutput redirects the logrus backend, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	backends[BackendLogrus].(*logrusBackend).logger.SetOutput(w)
}

func (b *logrusBackend) newLogger(tag string) Logger {
	return &logrusLogger{entry: b.logger.WithField("tag", tag)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

var _ Logger = (*logrusLogger)(nil)

func (l *logrusLogger) Debugf(f string, v ...interface{}) { l.entry.Debugf(f, v...) }
func (l *logrusLogger) Debug(v ...interface{})            { l.entry.Debug(v...) }
func (l *logrusLogger) Infof(f string, v ...interface{})  { l.entry.Infof(f, v...) }
func (l *logrusLogger) Info(v ...interface{})             { l.entry.Info(v...) }
func (l *logrusLogger) Warnf(f string, v ...interface{})  { l.entry.Warnf(f, v...) }
func (l *logrusLogger) Warn(v ...interface{})             { l.entry.Warn(v...) }
func (l *logrusLogger) Errorf(f string, v ...interface{}) { l.entry.Errorf(f, v...) }
func (l *logrusLogger) Error(v ...interface{})            { l.entry.Error(v...) }
func (l *logrusLogger) Fatalf(f string, v ...interface{}) { l.entry.Fatalf(f, v...) }
func (l *logrusLogger) Fatal(v ...interface{})            { l.entry.Fatal(v...) }

func (l *logrusLogger) With(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}
