package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the statement text written per entry.
const maxSQLLength = 1000

// GormLogger sends GORM statements for the user store to zap. Entries are
// tagged with the store driver and the request ID of the calling request.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger derives the GORM level from the service log level: debug
// logs every statement, info and warn log slow statements and failures,
// error logs failures only.
func NewGormLogger(l *zap.Logger, driver string, slowQuerySeconds float64, logLevel string) *GormLogger {
	return &GormLogger{
		log:   l.Named("gorm").With(zap.String("store", driver)),
		level: gormLevel(parseLogLevel(logLevel)),
		slow:  time.Duration(slowQuerySeconds * float64(time.Second)),
	}
}

func gormLevel(lvl zapcore.Level) gormlogger.LogLevel {
	switch {
	case lvl <= zapcore.DebugLevel:
		return gormlogger.Info
	case lvl <= zapcore.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		WithContext(ctx, g.log).Sugar().Infof(msg, args...)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		WithContext(ctx, g.log).Sugar().Warnf(msg, args...)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		WithContext(ctx, g.log).Sugar().Errorf(msg, args...)
	}
}

// Trace logs one executed statement. A missing record is a normal lookup
// miss for the repository and is not reported as an error.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := g.slow > 0 && elapsed > g.slow

	var msg string
	var lvl zapcore.Level
	switch {
	case failed && g.level >= gormlogger.Error:
		msg, lvl = "gorm query error", zapcore.ErrorLevel
	case slow && g.level >= gormlogger.Warn:
		msg, lvl = "gorm slow query", zapcore.WarnLevel
	case g.level >= gormlogger.Info:
		msg, lvl = "gorm query", zapcore.DebugLevel
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
		fields = append(fields, zap.Bool("sql_truncated", true))
	}
	fields = append(fields, zap.String("sql", sql))
	if failed {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", g.slow))
	}

	WithContext(ctx, g.log).Log(lvl, msg, fields...)
}
