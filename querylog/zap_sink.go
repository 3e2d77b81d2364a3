package querylog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// ZapSink writes records through a zap logger.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps an existing zap logger as a Sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger}
}

// Write implements Sink.
func (s *ZapSink) Write(rec Record) error {
	fields := []zap.Field{
		zap.Time("ts", rec.Timestamp),
		zap.String("query", rec.Query),
	}
	if len(rec.Args) > 0 {
		fields = append(fields, zap.Any("args", rec.Args))
	}
	s.logger.Info("query", fields...)
	return nil
}

// FileSink is an append-only, size-rotated JSON file sink.
type FileSink struct {
	*ZapSink
	out *lumberjack.Logger
}

// NewFileSink creates a sink that appends JSON records to path, rotating the
// file when it grows past maxSizeMB megabytes. Values below 1 fall back to
// lumberjack's default.
func NewFileSink(path string, maxSizeMB int) *FileSink {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(out),
		zapcore.InfoLevel,
	)
	return &FileSink{
		ZapSink: NewZapSink(zap.New(core)),
		out:     out,
	}
}

// Close flushes buffered records and closes the underlying file.
func (s *FileSink) Close() error {
	_ = s.logger.Sync()
	return s.out.Close()
}
