// Package log writes one JSON object per line to the standard logger.
// Levels: info, audit (state changes worth keeping), warn (security
// relevant rejections) and error.
package log

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/domain"
)

type record struct {
	TS      string         `json:"ts"`
	Level   string         `json:"level"`
	Action  string         `json:"action"`
	ReqID   string         `json:"req_id,omitempty"`
	TraceID string         `json:"trace_id,omitempty"`
	IP      string         `json:"ip,omitempty"`
	Method  string         `json:"method,omitempty"`
	Path    string         `json:"path,omitempty"`
	Route   string         `json:"route,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	Role    domain.Role    `json:"role,omitempty"`
	Status  int            `json:"status,omitempty"`
	Err     string         `json:"err,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// fill copies what the request knows about itself. The status is whatever
// has been set so far, so lines written before the handler finishes may
// still show 200.
func (r *record) fill(c *fiber.Ctx) {
	r.IP = c.IP()
	r.Method = c.Method()
	r.Path = c.Path()
	if rt := c.Route(); rt != nil && rt.Path != r.Path {
		r.Route = rt.Path
	}
	r.Status = c.Response().StatusCode()
	if rid, ok := c.Locals("requestid").(string); ok {
		r.ReqID = rid
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		r.UserID, r.Role = u.ID, u.Role
	}
	if sc := trace.SpanContextFromContext(c.UserContext()); sc.HasTraceID() {
		r.TraceID = sc.TraceID().String()
	}
}

func emit(level string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	r := record{TS: time.Now().UTC().Format(time.RFC3339Nano), Level: level, Action: action, Fields: fields}
	if c != nil {
		r.fill(c)
	}
	if err != nil {
		r.Err = err.Error()
	}
	b, mErr := json.Marshal(r)
	if mErr != nil {
		// A field held something json cannot encode; keep the line anyway.
		r.Fields = map[string]any{"unencodable": mErr.Error()}
		b, _ = json.Marshal(r)
	}
	log.Println(string(b))
}

// c may be nil for events raised outside a request.
func Info(c *fiber.Ctx, action string, fields map[string]any) { emit("info", c, action, nil, fields) }

func Audit(c *fiber.Ctx, action string, fields map[string]any) { emit("audit", c, action, nil, fields) }

// Security records a refused or suspicious request at warn level.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit("warn", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit("error", c, action, err, fields)
}
