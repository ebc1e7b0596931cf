package log

// Logger defines the log functions used across the pool dashboard
type Logger interface {
	Debugf(f string, v ...interface{})
	Debug(v ...interface{})
	Infof(f string, v ...interface{})
	Info(v ...interface{})
	Warnf(f string, v ...interface{})
	Warn(v ...interface{})
	Errorf(f string, v ...interface{})
	Error(v ...interface{})
	Fatalf(f string, v ...interface{})
	Fatal(v ...interface{})

	// With returns a logger carrying an extra structured field.
	With(key string, value interface{}) Logger
}

// Config selects the backend and its output.
type Config struct {
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
}

// Backend names
const (
	BackendLogrus = "logrus"
	BackendZap    = "zap"
)

// backend builds tagged loggers for one logging library.
type backend interface {
	setup(cfg Config) error
	newLogger(tag string) Logger
}
