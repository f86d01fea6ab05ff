package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger はzapをバックエンドにしたスレッドセーフなロガー
type Logger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// Default はデフォルトのロガー
// 標準出力は集計行専用なので標準エラーに書く
var Default = New(os.Stderr, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	level := zap.NewAtomicLevelAt(minLevel.zap())

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	enc.EncodeLevel = func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString("[" + l.CapitalString() + "]")
	}
	enc.CallerKey = zapcore.OmitKey
	enc.StacktraceKey = zapcore.OmitKey

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(out)),
		level,
	)

	return &Logger{
		level: level,
		sugar: zap.New(core).Sugar(),
	}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

// Enabled は指定レベルが出力対象かどうかを返す
func (l *Logger) Enabled(level Level) bool {
	return l.level.Enabled(level.zap())
}

// Sync はバッファされたログを書き出す
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// log は指定されたレベルでログを出力する
// clientID が空でなければ client フィールドとして付与する
func (l *Logger) log(level Level, clientID string, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	s := l.sugar
	if clientID != "" {
		s = s.With(zap.String("client", clientID))
	}

	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		s.Debug(msg)
	case LevelWarn:
		s.Warn(msg)
	case LevelError:
		s.Error(msg)
	default:
		s.Info(msg)
	}
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(clientID string, format string, args ...any) {
	l.log(LevelDebug, clientID, format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(clientID string, format string, args ...any) {
	l.log(LevelInfo, clientID, format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(clientID string, format string, args ...any) {
	l.log(LevelWarn, clientID, format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(clientID string, format string, args ...any) {
	l.log(LevelError, clientID, format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(clientID string, format string, args ...any) {
	Default.Debug(clientID, format, args...)
}

// Info は情報ログを出力する
func Info(clientID string, format string, args ...any) {
	Default.Info(clientID, format, args...)
}

// Warn は警告ログを出力する
func Warn(clientID string, format string, args ...any) {
	Default.Warn(clientID, format, args...)
}

// Error はエラーログを出力する
func Error(clientID string, format string, args ...any) {
	Default.Error(clientID, format, args...)
}
