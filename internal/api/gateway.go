package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"downfall/internal/config"
	"downfall/internal/metrics"
)

const (
	familyLocal    = "local"
	familyPD       = "pd"
	familyGLZ      = "glz"
	familyMetadata = "metadata"
)

// Endpoints builds the base URL of every upstream family. Tests swap them for a local server.
type Endpoints struct {
	Local    func(port int) string
	PD       func(shard string) string
	GLZ      func(region, shard string) string
	Metadata string
}

func DefaultEndpoints(metadataURL string) Endpoints {
	return Endpoints{
		Local: func(port int) string {
			return fmt.Sprintf("https://127.0.0.1:%d", port)
		},
		PD: func(shard string) string {
			return fmt.Sprintf("https://pd.%s.a.pvp.net", shard)
		},
		GLZ: func(region, shard string) string {
			return fmt.Sprintf("https://glz-%s-1.%s.a.pvp.net", region, shard)
		},
		Metadata: metadataURL,
	}
}

type Gateway struct {
	// local talks to the loopback client API whose certificate is self-signed
	local     *fasthttp.Client
	remote    *fasthttp.Client
	endpoints Endpoints
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewGateway(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	return NewGatewayWithEndpoints(DefaultEndpoints(cfg.MetadataURL), m, logger)
}

func NewGatewayWithEndpoints(endpoints Endpoints, m *metrics.Metrics, logger zerolog.Logger) *Gateway {
	return &Gateway{
		local: &fasthttp.Client{
			TLSConfig:           &tls.Config{InsecureSkipVerify: true},
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		// ids are path-escaped by the callers and must reach the wire as built
		remote: &fasthttp.Client{
			DisablePathNormalizing: true,
			MaxConnsPerHost:        100,
			ReadTimeout:            10 * time.Second,
			WriteTimeout:           10 * time.Second,
			MaxIdleConnDuration:    1 * time.Minute,
		},
		endpoints: endpoints,
		metrics:   m,
		logger:    logger.With().Str("component", "gateway").Logger(),
	}
}

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Op, e.Code)
}

type call struct {
	op      string
	family  string
	method  string
	url     string
	headers map[string]string
	body    any
}

func (gw *Gateway) do(ctx context.Context, client *fasthttp.Client, c call) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(c.method)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode body: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.DoDeadline(req, resp, deadline)
	} else {
		err = client.Do(req, resp)
	}
	if err != nil {
		gw.metrics.ObserveUpstream(c.family, 0, time.Since(start))
		return 0, nil, err
	}

	code := resp.StatusCode()
	gw.metrics.ObserveUpstream(c.family, code, time.Since(start))
	gw.logger.Debug().
		Str("op", c.op).
		Str("method", c.method).
		Int("status", code).
		Dur("took", time.Since(start)).
		Msg("upstream call")

	return code, append([]byte(nil), resp.Body()...), nil
}

func doRequest[T any](ctx context.Context, gw *Gateway, client *fasthttp.Client, c call) (*T, error) {
	code, body, err := gw.do(ctx, client, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.op, err)
	}
	if code < fasthttp.StatusOK || code >= fasthttp.StatusMultipleChoices {
		return nil, &StatusError{Op: c.op, Code: code}
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", c.op, err)
	}
	return &result, nil
}

// doCommand issues a mutating call and only inspects the status code.
func doCommand(ctx context.Context, gw *Gateway, client *fasthttp.Client, c call) error {
	code, _, err := gw.do(ctx, client, c)
	if err != nil {
		return fmt.Errorf("%s: %w", c.op, err)
	}
	if code < fasthttp.StatusOK || code >= fasthttp.StatusMultipleChoices {
		gw.logger.Warn().Str("op", c.op).Int("status", code).Msg("command rejected")
		return &StatusError{Op: c.op, Code: code}
	}
	return nil
}
