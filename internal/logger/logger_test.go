package logger

import (
	"testing"

	"github.com/phuslu/log"
)

func TestInit_Level(t *testing.T) {
	prev := log.DefaultLogger
	defer func() { log.DefaultLogger = prev }()

	Init("warn", "json")
	if log.DefaultLogger.Level != log.WarnLevel {
		t.Errorf("expected warn level, got %v", log.DefaultLogger.Level)
	}
	if _, ok := log.DefaultLogger.Writer.(*log.IOWriter); !ok {
		t.Errorf("expected IOWriter for json format, got %T", log.DefaultLogger.Writer)
	}

	Init("", "console")
	if log.DefaultLogger.Level != log.InfoLevel {
		t.Errorf("expected default info level, got %v", log.DefaultLogger.Level)
	}
	if _, ok := log.DefaultLogger.Writer.(*log.ConsoleWriter); !ok {
		t.Errorf("expected ConsoleWriter, got %T", log.DefaultLogger.Writer)
	}
}
