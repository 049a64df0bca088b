package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Fatal(msg string, keyvals ...interface{})
}

type zerologLogger struct {
	log zerolog.Logger
}

func New(level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zl := zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339

	return &zerologLogger{log: zl}
}

// Nop возвращает логгер, который ничего не пишет (для тестов)
func Nop() Logger {
	return &zerologLogger{log: zerolog.Nop()}
}

func (l *zerologLogger) Debug(msg string, keyvals ...interface{}) {
	l.log.Debug().Fields(fields(keyvals)).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keyvals ...interface{}) {
	l.log.Info().Fields(fields(keyvals)).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, keyvals ...interface{}) {
	l.log.Warn().Fields(fields(keyvals)).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keyvals ...interface{}) {
	l.log.Error().Fields(fields(keyvals)).Msg(msg)
}

func (l *zerologLogger) Fatal(msg string, keyvals ...interface{}) {
	l.log.Fatal().Fields(fields(keyvals)).Msg(msg)
}

// fields собирает пары ключ-значение в map для zerolog
func fields(keyvals []interface{}) map[string]interface{} {
	if len(keyvals) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		m[key] = keyvals[i+1]
	}
	return m
}
