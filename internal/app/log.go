package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// mbHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<sessionID>\t<message>\t<key=value ...>
//
// Favorite writes log from their own goroutines, so each line is built in
// full and written under a lock shared by all derived handlers.
type mbHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	sessionID string
	group     string
	attrs     []slog.Attr
}

func newMBHandler(w io.Writer, sessionID string) *mbHandler {
	return &mbHandler{mu: &sync.Mutex{}, w: w, sessionID: sessionID}
}

func (h *mbHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *mbHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.sessionID, r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, "\t%s=%v", h.qualify(a.Key), a.Value)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *mbHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *mbHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	qualified := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	qualified = append(qualified, h.attrs...)
	for _, a := range attrs {
		qualified = append(qualified, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &mbHandler{mu: h.mu, w: h.w, sessionID: h.sessionID, group: h.group, attrs: qualified}
}

func (h *mbHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &mbHandler{mu: h.mu, w: h.w, sessionID: h.sessionID, group: h.qualify(name), attrs: h.attrs}
}

// newLogger creates a structured logger writing to logDir/mb.log, and also
// to stderr when stderr is non-nil. It returns the open log file for cleanup.
func newLogger(logDir, sessionID string, stderr io.Writer) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "mb.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if stderr != nil {
		w = io.MultiWriter(f, stderr)
	}
	return slog.New(newMBHandler(w, sessionID)), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the mb.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
