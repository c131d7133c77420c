package logger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQuery is the duration above which a statement is logged as slow.
const slowQuery = 200 * time.Millisecond

// GormLogger routes GORM's statement log into the global zap logger.
type GormLogger struct {
	level gormlogger.LogLevel
}

// NewGormLogger returns a GORM logger writing at the given level.
func NewGormLogger(level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{level: level}
}

// LogMode implements gormlogger.Interface.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{level: level}
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		Get().Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		Get().Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		Get().Errorf(msg, args...)
	}
}

// Trace logs failed and slow statements. Record-not-found is expected by the
// services and is not logged.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		Get().Errorw("query failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		Get().Warnw("slow query", "elapsed", elapsed, "rows", rows, "sql", sql)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		Get().Debugw("query", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
