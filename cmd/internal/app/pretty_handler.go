package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBright  = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

// prettyHandler renders one key=value line per record for local development
// (ALTCHA_LOG_FORMAT=pretty). Attributes added through With are rendered once.
type prettyHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	src   bool
	color bool

	prefix string // group path, "a.b."
	pre    string // rendered With attrs
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) slog.Handler {
	h := &prettyHandler{w: w, mu: &sync.Mutex{}, level: slog.LevelInfo, color: color}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.src = opts.AddSource
	}
	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ts=%s lvl=%s msg=%s",
		h.paint(ts.Format("15:04:05.000"), ansiDim),
		h.paint(levelTag(r.Level), levelColor(r.Level)),
		h.paint(r.Message, ansiBright),
	)

	if h.src && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			b.WriteString(" src=" + h.paint(filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line), ansiDim))
		}
	}

	b.WriteString(h.pre)
	r.Attrs(func(a slog.Attr) bool {
		h.render(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	for _, a := range attrs {
		h.render(&b, h.prefix, a)
	}
	cp := *h
	cp.pre = h.pre + b.String()
	return &cp
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if strings.TrimSpace(name) == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func (h *prettyHandler) render(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Key == "" || a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.render(b, prefix+a.Key+".", ga)
		}
		return
	}

	key, val := prefix+a.Key, a.Value
	text, code := styleField(a.Key, val)
	if short, ok := shortKeys[a.Key]; ok && prefix == "" {
		key = short
	}
	b.WriteString(" " + key + "=" + h.paint(text, code))
}

// shortKeys shortens the request-log fields emitted by WithRequestLogging.
var shortKeys = map[string]string{
	"status_class": "class",
	"duration_ms":  "duration",
}

// styleField returns the display text and color for well-known fields.
func styleField(key string, v slog.Value) (string, string) {
	switch key {
	case "method":
		m := strings.ToUpper(v.String())
		if m == "POST" {
			return m, ansiBlue
		}
		return m, ansiGreen
	case "path", "route":
		return v.String(), ansiCyan
	case "status":
		if v.Kind() == slog.KindInt64 {
			return strconv.FormatInt(v.Int64(), 10), statusColor(int(v.Int64()))
		}
	case "status_class":
		if c := v.String(); len(c) == 3 && c[0] >= '2' && c[0] <= '5' {
			return c, statusColor(int(c[0]-'0') * 100)
		}
	case "duration_ms":
		if v.Kind() == slog.KindInt64 {
			ms := v.Int64()
			code := ansiDim
			if ms >= 250 {
				code = ansiYellow
			}
			return strconv.FormatInt(ms, 10) + "ms", code
		}
	case "result", "reason":
		r := v.String()
		switch r {
		case "ok", "success", "redirect":
			return r, ansiGreen
		case "server_error", "internal":
			return r, ansiRed
		}
		return quoteIfNeeded(r), ansiYellow
	case "request_id":
		return v.String(), ansiDim
	}
	return quoteIfNeeded(valueText(v)), ""
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func statusColor(code int) string {
	switch {
	case code >= 500:
		return ansiRed
	case code >= 400:
		return ansiYellow
	case code >= 300:
		return ansiCyan
	default:
		return ansiGreen
	}
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "[ERROR]"
	case l >= slog.LevelWarn:
		return "[WARN]"
	case l < slog.LevelInfo:
		return "[DEBUG]"
	default:
		return "[INFO]"
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return ansiRed
	case l >= slog.LevelWarn:
		return ansiYellow
	case l < slog.LevelInfo:
		return ansiMagenta
	default:
		return ansiBlue
	}
}

func (h *prettyHandler) paint(s, code string) string {
	if !h.color || code == "" {
		return s
	}
	return code + s + ansiReset
}
