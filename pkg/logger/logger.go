package logger

import (
	"log"
	"os"
	"sync"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger
	WarnLogger  *log.Logger

	warned sync.Map
)

func init() {
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
}

func Info(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

func Error(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}

func Debug(format string, v ...interface{}) {
	if os.Getenv("ENVIRONMENT") == "development" {
		DebugLogger.Printf(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	WarnLogger.Printf(format, v...)
}

// WarnOnce logs the first warning recorded under key and drops the rest.
// It reports whether the message was written.
func WarnOnce(key, format string, v ...interface{}) bool {
	if _, loaded := warned.LoadOrStore(key, struct{}{}); loaded {
		return false
	}
	WarnLogger.Printf(format, v...)
	return true
}

// ResetOnce forgets a WarnOnce key, e.g. after a disabled component recovers.
func ResetOnce(key string) {
	warned.Delete(key)
}

// LogDeliveryError records a failed best-effort delivery without failing the caller.
func LogDeliveryError(channel, chatID string, err error) {
	Warn("Delivery error: channel=%s, chatID=%s, error=%v", channel, chatID, err)
}
