package api

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/middleware"
	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/ws"
)

func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS origins double as WebSocket origin patterns; the config
		// validator keeps them to plain origins or a sole wildcard.
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}

// maxArchiveLimit caps the number of archived jobs returned per request.
const maxArchiveLimit = 500

func parseLimit(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxArchiveLimit {
		return maxArchiveLimit
	}

	return v
}

// validatePathID checks that a path or query profile ID is non-empty and
// within length limits.
func validatePathID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if len(id) > 255 {
		return fmt.Errorf("id exceeds maximum length of 255")
	}
	return nil
}

// paramsFromQuery applies the per-request weight and threshold overrides
// (?kw=&desc=&head=&th=) onto the server defaults and validates the outcome.
func paramsFromQuery(c *gin.Context, defaults models.Params) (models.Params, error) {
	p := defaults

	overrides := []struct {
		name string
		dst  *float64
	}{
		{"kw", &p.Weights.Keyword},
		{"desc", &p.Weights.Description},
		{"head", &p.Weights.Headline},
		{"th", &p.Threshold},
	}

	for _, o := range overrides {
		raw := c.Query(o.name)
		if raw == "" {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Params{}, fmt.Errorf("%s must be a number", o.name)
		}
		*o.dst = v
	}

	if err := p.Validate(); err != nil {
		return models.Params{}, err
	}

	return p, nil
}

// paramOverrides is the optional scoring override block shared by the JSON
// request bodies. Pointers distinguish "absent" from an explicit zero.
type paramOverrides struct {
	Keywords    *float64 `json:"kw"`
	Description *float64 `json:"desc"`
	Headline    *float64 `json:"head"`
	Threshold   *float64 `json:"th"`
}

// apply merges the overrides onto the defaults and validates the outcome.
func (o paramOverrides) apply(defaults models.Params) (models.Params, error) {
	p := defaults
	if o.Keywords != nil {
		p.Weights.Keyword = *o.Keywords
	}
	if o.Description != nil {
		p.Weights.Description = *o.Description
	}
	if o.Headline != nil {
		p.Weights.Headline = *o.Headline
	}
	if o.Threshold != nil {
		p.Threshold = *o.Threshold
	}

	if err := p.Validate(); err != nil {
		return models.Params{}, err
	}

	return p, nil
}

// weightsEcho repeats the effective weights in batch responses. Normalized is
// true when the requested weights were rescaled to sum to one.
type weightsEcho struct {
	Keywords    float64 `json:"keywords"`
	Description float64 `json:"description"`
	Headline    float64 `json:"headline"`
	Normalized  bool    `json:"normalized"`
}

func echoWeights(p models.Params) weightsEcho {
	effective, rescaled := p.Weights.Normalized()

	return weightsEcho{
		Keywords:    effective.Keyword,
		Description: effective.Description,
		Headline:    effective.Headline,
		Normalized:  rescaled,
	}
}
