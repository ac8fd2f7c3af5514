package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置接口，由 config.LogConfig 实现
type LogConfig interface {
	GetLevel() string
	GetOutput() string
	GetFile() string
}

// Logger 自定义日志器
type Logger struct {
	zapLogger *zap.Logger
}

// RotationConfig 文件轮转配置
type RotationConfig struct {
	MaxSize    int  // 单个文件最大大小（MB）
	MaxBackups int  // 保留旧文件数量
	MaxAge     int  // 保留天数
	Compress   bool // 是否压缩
}

var defaultRotation = RotationConfig{MaxSize: 100, MaxBackups: 3, MaxAge: 28, Compress: true}

var defaultLogger *Logger

func init() {
	defaultLogger = &Logger{zapLogger: zap.Must(newZapConfig(zapcore.InfoLevel).Build(zap.AddCallerSkip(2)))}
}

func newZapConfig(level zapcore.Level) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.MessageKey = "message"
	return config
}

// New 按配置创建日志器，output 为 file 时使用 lumberjack 轮转
func New(cfg LogConfig) (*Logger, error) {
	level := ParseLevel(cfg.GetLevel())
	config := newZapConfig(level)

	var sink zapcore.WriteSyncer
	switch strings.ToLower(cfg.GetOutput()) {
	case "", "stdout":
		sink = zapcore.AddSync(os.Stdout)
	case "stderr":
		sink = zapcore.AddSync(os.Stderr)
	case "file":
		if cfg.GetFile() == "" {
			return nil, fmt.Errorf("log output is file but no file configured")
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.GetFile(),
			MaxSize:    defaultRotation.MaxSize,
			MaxBackups: defaultRotation.MaxBackups,
			MaxAge:     defaultRotation.MaxAge,
			Compress:   defaultRotation.Compress,
		})
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.GetOutput())
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(config.EncoderConfig), sink, config.Level)
	return &Logger{zapLogger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}, nil
}

// NewNop 丢弃所有输出，测试使用
func NewNop() *Logger {
	return &Logger{zapLogger: zap.NewNop()}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zapLogger.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zapLogger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zapLogger.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zapLogger.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.zapLogger.Fatal(fmt.Sprintf(format, args...))
}

// Sync 刷新缓冲
func (l *Logger) Sync() {
	_ = l.zapLogger.Sync()
}

// With 添加结构化字段
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zapLogger: l.zapLogger.With(fields...)}
}

// SetDefaultLogger 替换全局日志器
func SetDefaultLogger(l *Logger) {
	if defaultLogger != nil {
		defaultLogger.Sync()
	}
	defaultLogger = l
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatal(format, args...)
}

func Sync() {
	defaultLogger.Sync()
}

func With(fields ...zap.Field) *Logger {
	return defaultLogger.With(fields...)
}

// ParseLevel 解析日志级别字符串，未知值按 info 处理
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
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
