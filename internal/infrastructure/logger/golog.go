package logger

import (
	"io"
	"os"

	"github.com/kataras/golog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options параметры логгера
type Options struct {
	Debug bool   // включить отладочные сообщения
	File  string // путь к файлу лога, пусто: только stderr
	// Output заменяет stderr, используется в тестах
	Output io.Writer
}

// GologLogger логгер на основе golog
type GologLogger struct {
	logger *golog.Logger
	file   *lumberjack.Logger
}

// New создает логгер. При заданном File вывод дублируется в файл с ротацией.
func New(opts Options) *GologLogger {
	l := golog.New()
	l.SetTimeFormat("2006/01/02 15:04:05")

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 2,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, file)
	}
	l.SetOutput(out)

	if opts.Debug {
		l.SetLevel("debug")
	} else {
		l.SetLevel("info")
	}

	return &GologLogger{logger: l, file: file}
}

// Child возвращает логгер компонента с префиксом [name]
func (l *GologLogger) Child(name string) *GologLogger {
	return &GologLogger{logger: l.logger.Child("[" + name + "]"), file: l.file}
}

// Info логирует информационное сообщение
func (l *GologLogger) Info(msg string, args ...interface{}) {
	l.logger.Infof(msg, args...)
}

// Error логирует сообщение об ошибке
func (l *GologLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorf(msg, args...)
}

// Debug логирует отладочное сообщение
func (l *GologLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugf(msg, args...)
}

// Close закрывает файл лога
func (l *GologLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
