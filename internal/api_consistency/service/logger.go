package service

import (
	"context"
	"log"
)

// Logger carries the request id through an analysis so that pipeline log
// lines can be correlated with the HTTP request that triggered them.
type Logger struct {
	requestID string
}

func NewLogger(ctx context.Context) *Logger {
	requestID := ""
	if id, ok := ctx.Value("request_id").(string); ok {
		requestID = id
	}
	return &Logger{requestID: requestID}
}

func (l *Logger) Info(operation string, message string) {
	log.Printf("[info] request_id=%s operation=%s message=%s", l.requestID, operation, message)
}

func (l *Logger) Warn(operation string, message string) {
	log.Printf("[warn] request_id=%s operation=%s message=%s", l.requestID, operation, message)
}

func (l *Logger) Error(operation string, err error) {
	log.Printf("[error] request_id=%s operation=%s error=%v", l.requestID, operation, err)
}
