package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
)

const (
	defaultMeasurementEndpoint = "https://www.google-analytics.com/mp/collect"
	defaultCollectEndpoint     = "https://www.google-analytics.com/collect"
)

// MeasurementProtocol implements the gtag shape on top of the GA4 Measurement Protocol.
type MeasurementProtocol struct {
	endpoint      string
	measurementID string
	apiSecret     string
	clientID      string
	sink          HitSink
	logger        *log.Logger
}

// NewMeasurementProtocol creates a GA4 transport. An empty endpoint uses the public collection URL.
func NewMeasurementProtocol(endpoint, measurementID, apiSecret, clientID string, sink HitSink, logger *log.Logger) *MeasurementProtocol {
	if endpoint == "" {
		endpoint = defaultMeasurementEndpoint
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MeasurementProtocol{
		endpoint:      endpoint,
		measurementID: measurementID,
		apiSecret:     apiSecret,
		clientID:      clientID,
		sink:          sink,
		logger:        logger,
	}
}

type mpPayload struct {
	ClientID string    `json:"client_id"`
	Events   []mpEvent `json:"events"`
}

type mpEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Gtag is a [GtagFunc]. Only the "event" command is supported; other commands are ignored.
func (m *MeasurementProtocol) Gtag(command, action string, params map[string]any) {
	if command != "event" {
		m.logger.Debug("ignoring gtag command", "command", command)
		return
	}

	hit, err := m.Hit(action, params)
	if err != nil {
		m.logger.Warn("failed to build measurement hit", "err", err)
		return
	}

	if err := m.sink.Enqueue(hit); err != nil {
		m.logger.Warn("measurement hit not queued", "action", action, "err", err)
	}
}

// Hit builds the /mp/collect request for one event.
func (m *MeasurementProtocol) Hit(action string, params map[string]any) (Hit, error) {
	q := url.Values{}
	q.Set("measurement_id", m.measurementID)
	q.Set("api_secret", m.apiSecret)

	body, err := json.Marshal(mpPayload{
		ClientID: m.clientID,
		Events:   []mpEvent{{Name: EventName(action), Params: params}},
	})
	if err != nil {
		return Hit{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Hit{
		URL:         m.endpoint + "?" + q.Encode(),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// EventName converts a human readable action into a GA4 event name: lower snake case, at most 40 characters.
//
//	"Progress 1/4 with scrubbing" → "progress_1_4_with_scrubbing"
func EventName(action string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(action) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case b.Len() > 0 && !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}

	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "event"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "e_" + name
	}
	if len(name) > 40 {
		name = strings.TrimSuffix(name[:40], "_")
	}
	return name
}

// Collect implements the ga shape on top of the Universal Analytics collect endpoint.
type Collect struct {
	endpoint   string
	trackingID string
	clientID   string
	sink       HitSink
	logger     *log.Logger
}

// NewCollect creates a Universal Analytics transport. An empty endpoint uses the public collection URL.
func NewCollect(endpoint, trackingID, clientID string, sink HitSink, logger *log.Logger) *Collect {
	if endpoint == "" {
		endpoint = defaultCollectEndpoint
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Collect{
		endpoint:   endpoint,
		trackingID: trackingID,
		clientID:   clientID,
		sink:       sink,
		logger:     logger,
	}
}

// GA is a [GAFunc]. Only ga("send", "event", ...) is supported; other commands are ignored.
func (c *Collect) GA(command, hitType, category, action, label string) {
	if command != "send" || hitType != "event" {
		c.logger.Debug("ignoring ga command", "command", command, "type", hitType)
		return
	}

	if err := c.sink.Enqueue(c.Hit(category, action, label)); err != nil {
		c.logger.Warn("collect hit not queued", "action", action, "err", err)
	}
}

// Hit builds the form-encoded /collect request for one event.
func (c *Collect) Hit(category, action, label string) Hit {
	form := url.Values{}
	form.Set("v", "1")
	form.Set("tid", c.trackingID)
	form.Set("cid", c.clientID)
	form.Set("t", "event")
	form.Set("ec", category)
	form.Set("ea", action)
	if label != "" {
		form.Set("el", label)
	}

	return Hit{
		URL:         c.endpoint,
		ContentType: "application/x-www-form-urlencoded",
		Body:        []byte(form.Encode()),
	}
}

// WriterQueue implements the legacy _gaq shape by writing each pushed command as a tab separated line.
type WriterQueue struct {
	mu     sync.Mutex
	w      io.Writer
	logger *log.Logger
	pushed int
}

// NewWriterQueue creates a [WriterQueue] writing to w.
func NewWriterQueue(w io.Writer, logger *log.Logger) *WriterQueue {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &WriterQueue{w: w, logger: logger}
}

// Push writes args as one line.
func (q *WriterQueue) Push(args ...any) {
	fields := make([]string, len(args))
	for i, arg := range args {
		fields[i] = fmt.Sprint(arg)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.pushed++
	if _, err := fmt.Fprintln(q.w, strings.Join(fields, "\t")); err != nil {
		q.logger.Warn("failed to write queued command", "err", err)
	}
}

// Len returns the number of commands pushed so far.
func (q *WriterQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed
}
