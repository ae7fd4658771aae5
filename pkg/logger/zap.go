package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func NewLogger(debug bool) (*zap.SugaredLogger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}
	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    consoleEncoderConfig(),
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func NewOptionalLogger(debug bool) *zap.SugaredLogger {
	logger, err := NewLogger(debug)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger
}

// NewFileLogger writes every entry at debug level as JSON into the rotated log file
// and mirrors it onto stderr (debug level only if requested).
// The returned close function flushes the logger and releases the log file.
func NewFileLogger(logFile string, debug bool) (*zap.SugaredLogger, func() error) {
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   false,
	}
	ws := zapcore.AddSync(rotator)
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		}),
		ws,
		zap.DebugLevel,
	)

	streamLevel := zap.InfoLevel
	if debug {
		streamLevel = zap.DebugLevel
	}
	streamCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		streamLevel,
	)

	logger := zap.New(zapcore.NewTee(fileCore, streamCore), zap.AddCaller()).Sugar()
	return logger, func() error {
		//syncing stderr fails on some terminals, only the log file matters
		_ = logger.Sync()
		return rotator.Close()
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:   "message",
		LevelKey:     "level",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		TimeKey:      "time",
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
}
