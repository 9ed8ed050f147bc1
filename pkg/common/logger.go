package common

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger atomic.Pointer[zap.Logger]
	once   sync.Once
)

func getLogger() *zap.Logger {
	initLogger()
	return logger.Load()
}

func GetLogger() *zap.Logger {
	return getLogger().Named("default")
}

// GetLoggerWith returns a named child of the process logger, e.g.
// GetLoggerWith(LoggerNameFleetCore, zap.String(LoggerFieldFleetCategory, LoggerCategoryFleetRobot)).
func GetLoggerWith(name string, fields ...zap.Field) *zap.Logger {
	return getLogger().Named(name).With(fields...)
}

func newRotatingFile() *lumberjack.Logger {
	dir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Error getting current directory: %v", err)
	}

	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		log.Fatalf("Error find/create logs directory: %v", err)
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "fleet.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28,   // days
		Compress:   true, // gzip
	}
}

func initLogger() {
	once.Do(func() {
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(newRotatingFile()),
			zap.InfoLevel,
		)

		if IsProduction() {
			logger.Store(zap.New(fileCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
			return
		}

		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel)

		logger.Store(zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	})
}

// SetTestCaptureLogger routes every logger handed out afterwards into buf as
// JSON lines.
func SetTestCaptureLogger(buf *bytes.Buffer, level zapcore.Level) {
	initLogger()

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(&lockedBuffer{buf: buf}), level)
	logger.Store(zap.New(core))
}

func SetTestLoggerNop() {
	initLogger()

	logger.Store(zap.NewNop())
}

// lockedBuffer lets background goroutines (ticker, socket writers) log into
// a test buffer without racing the assertions reading it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}
