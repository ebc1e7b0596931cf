package log

import (
	"fmt"
	"sync"
)

var (
	mu       sync.Mutex
	backends = map[string]backend{
		BackendLogrus: newLogrusBackend(),
		BackendZap:    newZapBackend(),
	}
	current = BackendLogrus
	loggers = map[string]*proxy{}
)

// proxy lets loggers created at package init follow a later Setup.
type proxy struct {
	tag    string
	target Logger
}

// Setup configures the selected backend and rebinds every logger created so far.
func Setup(cfg Config) error {
	name := cfg.Backend
	if name == "" {
		name = BackendLogrus
	}
	mu.Lock()
	defer mu.Unlock()

	b, ok := backends[name]
	if !ok {
		return fmt.Errorf("unknown log backend %q", name)
	}
	if err := b.setup(cfg); err != nil {
		return err
	}
	current = name
	for tag, p := range loggers {
		p.target = b.newLogger(tag)
	}
	return nil
}

// NewLogger returns the logger for tag, creating it on first use.
func NewLogger(tag string) Logger {
	mu.Lock()
	defer mu.Unlock()

	if p, ok := loggers[tag]; ok {
		return p
	}
	p := &proxy{tag: tag, target: backends[current].newLogger(tag)}
	loggers[tag] = p
	return p
}

func (p *proxy) logger() Logger {
	mu.Lock()
	defer mu.Unlock()
	return p.target
}

func (p *proxy) Debugf(f string, v ...interface{}) { p.logger().Debugf(f, v...) }
func (p *proxy) Debug(v ...interface{})            { p.logger().Debug(v...) }
func (p *proxy) Infof(f string, v ...interface{})  { p.logger().Infof(f, v...) }
func (p *proxy) Info(v ...interface{})             { p.logger().Info(v...) }
func (p *proxy) Warnf(f string, v ...interface{})  { p.logger().Warnf(f, v...) }
func (p *proxy) Warn(v ...interface{})             { p.logger().Warn(v...) }
func (p *proxy) Errorf(f string, v ...interface{}) { p.logger().Errorf(f, v...) }
func (p *proxy) Error(v ...interface{})            { p.logger().Error(v...) }
func (p *proxy) Fatalf(f string, v ...interface{}) { p.logger().Fatalf(f, v...) }
func (p *proxy) Fatal(v ...interface{})            { p.logger().Fatal(v...) }

func (p *proxy) With(key string, value interface{}) Logger {
	return p.logger().With(key, value)
}
