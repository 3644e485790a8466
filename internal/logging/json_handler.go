package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// jsonFieldOrder puts the identifiers a run log is searched by right after
// ts/level/msg, whatever order the call site added them in.
var jsonFieldOrder = []string{FieldRunID, FieldSeriesID, FieldEpisodeID, FieldComponent, FieldEventType}

// jsonHandler collects top-level attributes so each line can be emitted
// with the identifiers first. Attributes added after WithGroup are passed
// through to the group unordered.
type jsonHandler struct {
	inner slog.Handler
	attrs []slog.Attr
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: renameJSONKeys,
	}
	return &jsonHandler{inner: slog.NewJSONHandler(w, &opts)}
}

func renameJSONKeys(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}

func (h *jsonHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *jsonHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	out.AddAttrs(orderJSONFields(attrs)...)
	return h.inner.Handle(ctx, out)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &jsonHandler{inner: h.inner, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

func (h *jsonHandler) WithGroup(name string) slog.Handler {
	inner := h.inner
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(orderJSONFields(h.attrs))
	}
	return &jsonHandler{inner: inner.WithGroup(name)}
}

func orderJSONFields(attrs []slog.Attr) []slog.Attr {
	rank := func(key string) int {
		if i := slices.Index(jsonFieldOrder, key); i >= 0 {
			return i
		}
		return len(jsonFieldOrder)
	}
	ordered := slices.Clone(attrs)
	slices.SortStableFunc(ordered, func(a, b slog.Attr) int { return rank(a.Key) - rank(b.Key) })
	return ordered
}
