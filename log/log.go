// Package log is a thin logrus wrapper that accepts key/value style context.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

const (
	timeFormat        = "2006-01-02T15:04:05.000Z07:00"
	defaultLogLevel   = logrus.InfoLevel
	defaultLogMaxAge  = 30 * 24 * time.Hour
	defaultRotateTime = 24 * time.Hour
)

// JSONFormat json format
var JSONFormat bool

var logger = logrus.New()

func init() {
	SetLogger(uint32(defaultLogLevel), false, true)
}

// SetLogger set log level, json format, color format
func SetLogger(vlevel uint32, jsonFormat, colorFormat bool) {
	logger.SetLevel(convertLevel(vlevel))
	JSONFormat = jsonFormat
	if jsonFormat {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timeFormat,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:     colorFormat,
			DisableColors:   !colorFormat,
			FullTimestamp:   true,
			TimestampFormat: timeFormat,
		})
	}
}

// SetLogFile set log file with rotation (in hours) and max age (in hours)
func SetLogFile(logFile string, rotationHours, maxAgeHours uint64) {
	if logFile == "" {
		return
	}
	absPath, err := filepath.Abs(logFile)
	if err != nil {
		Fatalf("get abs path of log file '%v' failed. %v", logFile, err)
	}
	rotation := defaultRotateTime
	if rotationHours > 0 {
		rotation = time.Duration(rotationHours) * time.Hour
	}
	maxAge := defaultLogMaxAge
	if maxAgeHours > 0 {
		maxAge = time.Duration(maxAgeHours) * time.Hour
	}
	writer, err := rotatelogs.New(
		absPath+".%Y%m%d%H",
		rotatelogs.WithLinkName(absPath),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		Fatalf("create rotate log file '%v' failed. %v", logFile, err)
	}
	logger.SetOutput(writer)
	logger.Info("set log file success", " file", absPath, " rotation", rotation, " maxAge", maxAge)
}

func convertLevel(vlevel uint32) logrus.Level {
	if vlevel > uint32(logrus.TraceLevel) {
		return logrus.TraceLevel
	}
	return logrus.Level(vlevel)
}

// GetLogger get underlying logger
func GetLogger() *logrus.Logger {
	return logger
}

// WithFields with fields
func WithFields(ctx ...interface{}) *logrus.Entry {
	return logger.WithFields(buildFields(ctx))
}

func buildFields(ctx []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(ctx)/2+1)
	for i := 0; i < len(ctx); i += 2 {
		key := strings.TrimSpace(fmt.Sprint(ctx[i]))
		if i+1 >= len(ctx) {
			fields["LOG_ERROR"] = "missing value of key " + key
			break
		}
		fields[key] = ctx[i+1]
	}
	return fields
}

// Trace trace
func Trace(msg string, ctx ...interface{}) {
	if logger.IsLevelEnabled(logrus.TraceLevel) {
		WithFields(ctx...).Trace(msg)
	}
}

// Debug debug
func Debug(msg string, ctx ...interface{}) {
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		WithFields(ctx...).Debug(msg)
	}
}

// Info info
func Info(msg string, ctx ...interface{}) {
	WithFields(ctx...).Info(msg)
}

// Warn warn
func Warn(msg string, ctx ...interface{}) {
	WithFields(ctx...).Warn(msg)
}

// Error error
func Error(msg string, ctx ...interface{}) {
	WithFields(ctx...).Error(msg)
}

// Fatal fatal, call os.Exit(1)
func Fatal(msg string, ctx ...interface{}) {
	WithFields(ctx...).Fatal(msg)
}

// Debugf debugf
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof infof
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warnf warnf
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf errorf
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fatalf fatalf
func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

// Printf printf to stdout
func Printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// Println println to stdout
func Println(args ...interface{}) {
	fmt.Fprintln(os.Stdout, args...)
}

// GetLogFuncOr returns f1 if cond is true, otherwise returns f2
func GetLogFuncOr(cond bool, f1, f2 func(string, ...interface{})) func(string, ...interface{}) {
	if cond {
		return f1
	}
	return f2
}

// GetPrintFuncOr returns f1 if cond() is true, otherwise returns f2
func GetPrintFuncOr(cond func() bool, f1, f2 func(string, ...interface{})) func(string, ...interface{}) {
	if cond() {
		return f1
	}
	return f2
}
