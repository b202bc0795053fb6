package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEvent is one log record as served to `jukebox logs`.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Level     string            `json:"level"`
	Component string            `json:"component,omitempty"`
	Event     string            `json:"event,omitempty"`
	Album     string            `json:"album,omitempty"`
	Track     string            `json:"track,omitempty"`
	Message   string            `json:"msg"`
	Session   string            `json:"session,omitempty"`
	Request   string            `json:"request,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   []DetailField     `json:"details,omitempty"`
}

// DetailField is one bullet line the console handler would print under the
// record.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const defaultHubCapacity = 512

// StreamHub keeps the most recent log events in a ring. Sequence numbers are
// contiguous, so the ring position of any buffered sequence is computed
// rather than searched.
type StreamHub struct {
	mu      sync.Mutex
	ring    []LogEvent
	start   int
	count   int
	last    uint64
	changed chan struct{}
}

// NewStreamHub returns a hub buffering up to capacity events.
func NewStreamHub(capacity int) *StreamHub {
	if capacity <= 0 {
		capacity = defaultHubCapacity
	}
	return &StreamHub{
		ring:    make([]LogEvent, capacity),
		changed: make(chan struct{}),
	}
}

// Publish assigns the next sequence number to evt and buffers it, evicting
// the oldest event when full.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.Lock()
	h.last++
	evt.Sequence = h.last
	if h.count < len(h.ring) {
		h.ring[(h.start+h.count)%len(h.ring)] = evt
		h.count++
	} else {
		h.ring[h.start] = evt
		h.start = (h.start + 1) % len(h.ring)
	}
	close(h.changed)
	h.changed = make(chan struct{})
	h.mu.Unlock()
}

// Fetch returns up to limit events newer than since, and the newest
// sequence number. With wait set it blocks until such an event exists or ctx
// ends.
func (h *StreamHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]LogEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	limit = h.clampLimit(limit)
	for {
		h.mu.Lock()
		events := h.rangeLocked(since+1, limit)
		last, changed := h.last, h.changed
		h.mu.Unlock()

		if len(events) > 0 || !wait {
			return events, last, ctx.Err()
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, last, ctx.Err()
		}
	}
}

// Tail returns the newest limit events without blocking.
func (h *StreamHub) Tail(limit int) ([]LogEvent, uint64) {
	if h == nil {
		return nil, 0
	}
	limit = h.clampLimit(limit)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := min(limit, h.count)
	return h.rangeLocked(h.last-uint64(n)+1, n), h.last
}

func (h *StreamHub) clampLimit(limit int) int {
	if limit <= 0 || limit > len(h.ring) {
		return len(h.ring)
	}
	return limit
}

// rangeLocked copies up to limit events starting at sequence from.
func (h *StreamHub) rangeLocked(from uint64, limit int) []LogEvent {
	if h.count == 0 || limit <= 0 || from > h.last {
		return nil
	}
	oldest := h.last - uint64(h.count) + 1
	from = max(from, oldest)
	n := min(int(h.last-from+1), limit)
	offset := int(from - oldest)
	out := make([]LogEvent, n)
	for i := range out {
		out[i] = h.ring[(h.start+offset+i)%len(h.ring)]
	}
	return out
}

// streamHandler publishes every handled record to a hub before passing it on.
type streamHandler struct {
	next   slog.Handler
	hub    *StreamHub
	attrs  []kv
	groups []string
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := append([]kv(nil), h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&attrs, h.groups, attr)
		return true
	})
	h.hub.Publish(newLogEvent(record, dedupeKVsByKey(attrs)))
	return h.next.Handle(ctx, record)
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = append([]kv(nil), h.attrs...)
	flattenAttrs(&clone.attrs, h.groups, attrs)
	return &clone
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// newLogEvent lifts the jukebox keys out of attrs into named fields. attrs
// must already be deduplicated with later values winning.
func newLogEvent(record slog.Record, attrs []kv) LogEvent {
	event := LogEvent{
		Timestamp: record.Time,
		Level:     levelLabel(record.Level),
		Message:   strings.TrimSpace(record.Message),
	}
	for _, attr := range attrs {
		value := attrString(attr.value)
		switch attr.key {
		case FieldComponent:
			event.Component = value
		case FieldEventType:
			event.Event = value
		case FieldAlbum:
			event.Album = value
		case FieldTrack:
			event.Track = value
		case FieldSessionID:
			event.Session = value
		case FieldCorrelationID:
			event.Request = value
		default:
			if event.Fields == nil {
				event.Fields = make(map[string]string)
			}
			event.Fields[attr.key] = value
		}
	}
	if info, _ := selectInfoFields(attrs); len(info) > 0 {
		event.Details = make([]DetailField, len(info))
		for i, field := range info {
			event.Details[i] = DetailField{Label: field.label, Value: field.value}
		}
	}
	return event
}
