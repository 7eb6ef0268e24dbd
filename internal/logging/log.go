package logging

import (
	"io"
	"log"
	"strings"
	"sync/atomic"
)

// DefaultFlags keeps log lines free of timestamps; the process supervisor adds them.
const DefaultFlags = 0

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var level atomic.Int32

func init() {
	level.Store(int32(LevelInfo))
}

// Init sets the output writer and flags. A nil writer keeps the current output.
func Init(w io.Writer, flags int) {
	if w != nil {
		log.SetOutput(w)
	}
	log.SetFlags(flags)
}

// SetLevel sets the minimum level that is written. Unknown names fall back to info.
func SetLevel(name string) {
	level.Store(int32(ParseLevel(name)))
}

func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func enabled(l Level) bool {
	return int32(l) >= level.Load()
}

func Debug(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		log.Printf("[DEBG] "+format+"\n", v...)
	}
}

func Info(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		log.Printf("[INFO] "+format+"\n", v...)
	}
}

func Warn(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		log.Printf("[WARN] "+format+"\n", v...)
	}
}

func Error(format string, v ...interface{}) {
	if enabled(LevelError) {
		log.Printf("[ERRO] "+format+"\n", v...)
	}
}
