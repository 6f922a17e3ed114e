package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes for development logging
const (
	reset      = "\033[0m"
	debugColor = "\033[36m" // Cyan
	infoColor  = "\033[32m" // Green
	warnColor  = "\033[33m" // Yellow
	errorColor = "\033[31m" // Red
	fatalColor = "\033[35m" // Magenta
)

// Logger is the structured logging interface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Logger
	Named(name string) Logger

	Sync() error
}

// Config controls logger construction.
type Config struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" envDefault:"info"`
	Format      string `yaml:"format" env:"LOG_FORMAT" envDefault:"console"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" envDefault:"development"`
}

// zapLogger implements Logger on top of zap.
type zapLogger struct {
	zap *zap.Logger
}

// New creates a logger from config. Production environment or json format
// selects the JSON encoder; everything else gets the colored console encoder.
func New(config Config) Logger {
	level := parseLevel(config.Level)

	if config.Environment == "production" || config.Format == "json" {
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		z, _ := zapConfig.Build(zap.AddCallerSkip(1))

		return &zapLogger{zap: z}
	}

	return &zapLogger{zap: newDevelopmentZap(level)}
}

// NewNoop creates a logger that discards everything. Useful in tests.
func NewNoop() Logger {
	return &zapLogger{zap: zap.NewNop()}
}

// NewWithZap wraps an existing zap logger. Used by tests with observed cores.
func NewWithZap(z *zap.Logger) Logger {
	return &zapLogger{zap: z}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func newDevelopmentZap(level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string

	switch level {
	case zapcore.DebugLevel:
		color = debugColor
	case zapcore.InfoLevel:
		color = infoColor
	case zapcore.WarnLevel:
		color = warnColor
	case zapcore.ErrorLevel:
		color = errorColor
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = fatalColor
	default:
		color = reset
	}

	enc.AppendString(color + level.CapitalString() + reset)
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, fieldsToZap(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, fieldsToZap(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, fieldsToZap(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, fieldsToZap(fields)...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.zap.Fatal(msg, fieldsToZap(fields)...)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{zap: l.zap.With(fieldsToZap(fields)...)}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{zap: l.zap.Named(name)}
}

func (l *zapLogger) Sync() error {
	return l.zap.Sync()
}
