package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
	TypeTrade   LogType = "TRADE"
	TypeWeb     LogType = "WEB"
)

// CustomHandler prints one coloured line per record, pulling the
// conventional attributes (type, name, user_name, status, error) into the
// message and appending the rest as key=value pairs.
type CustomHandler struct {
	opts   *slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	color  bool
	prefix string
	attrs  []slog.Attr
	groups []string
}

func NewHandler(level slog.Leveler, out io.Writer) *CustomHandler {
	if out == nil {
		out = os.Stdout
	}
	return &CustomHandler{
		opts:   &slog.HandlerOptions{Level: level},
		out:    out,
		mu:     &sync.Mutex{},
		color:  out == os.Stdout,
		prefix: "waifubot",
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.opts.Level != nil {
		min = h.opts.Level.Level()
	}
	return level >= min
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	values := collect(h.attrs, &r)

	message := r.Message
	if r.Level >= slog.LevelError {
		location := values["error_location"]
		if location == "" {
			location = sourceLocation(r.PC)
		}
		if location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := values["error"]; details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if values["name"] != "" && values["user_name"] != "" {
		message = fmt.Sprintf("%s [%s by %s]", message, values["name"], values["user_name"])
	}
	if values["status"] != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, values["status"])
	}

	var extra strings.Builder
	write := func(a slog.Attr) {
		if isInternalAttr(a.Key) {
			return
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		fmt.Fprintf(&extra, " %s=%v", key, a.Value)
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})

	line := fmt.Sprintf("[%s] [%s] [%s] [%s] %s%s",
		h.prefix,
		r.Time.Format("15:04:05"),
		levelText,
		logType(values["type"]),
		message,
		extra.String(),
	)
	if h.color {
		line = colorWhite + strings.Replace(line, levelText, levelColor+levelText+colorWhite, 1) + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

// collect gathers the string values of the first occurrence of each key.
func collect(base []slog.Attr, r *slog.Record) map[string]string {
	values := make(map[string]string, 6)
	add := func(a slog.Attr) {
		if _, ok := values[a.Key]; !ok {
			values[a.Key] = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})
	for _, a := range base {
		add(a)
	}
	return values
}

func shouldSkipLog(r *slog.Record) bool {
	// disgo is chatty at debug level
	skippedMessages := []string{
		"locking buckets",
		"unlocking buckets",
		"gateway event",
		"cleaning up bucket",
		"cleaned up rate limit buckets",
		"binary message received",
		"received gateway message",
		"locking gateway rate limiter",
		"unlocking gateway rate limiter",
		"sending gateway command",
		"new request",
		"new response",
		"locking rest bucket",
		"unlocking rest bucket",
		"rate limit response headers",
		"sending heartbeat",
	}

	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func logType(v string) LogType {
	switch v {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "error":
		return TypeError
	case "trade":
		return TypeTrade
	case "web":
		return TypeWeb
	}
	return TypeSystem
}

func sourceLocation(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "error", "error_location":
		return true
	}
	return false
}

// Setup installs the handler as the process-wide default logger.
func Setup(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(level, os.Stdout)))
}
