package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/herr"
)

// HTTPTransport sends a JSON-RPC request as an HTTP POST. It wraps
// go-retryablehttp purely for its context-aware client and leveled
// logger hook-up; RetryMax is always 0 because this module's dispatch
// model treats a single transport failure as final (see
// internal/dispatch).
type HTTPTransport struct {
	URL    string
	client *retryablehttp.Client
}

func NewHTTPTransport(url string, timeout time.Duration, log zerolog.Logger) *HTTPTransport {
	c := retryablehttp.NewClient()
	c.RetryMax = 0
	c.HTTPClient.Timeout = timeout
	c.Logger = retryableLogAdapter{log: log}
	return &HTTPTransport{URL: url, client: c}
}

func (t *HTTPTransport) Call(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("transport: encoding request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: building request: %v", herr.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("%w: %v", herr.ErrTimeout, ctx.Err())
		}
		return Response{}, fmt.Errorf("%w: %v", herr.ErrTransport, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: reading body: %v", herr.ErrTransport, err)
	}

	var resp Response
	resp.ExitCode = httpResp.StatusCode
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil {
			return Response{}, fmt.Errorf("%w: decoding body: %v", herr.ErrTransport, err)
		}
	}
	if httpResp.StatusCode >= 400 {
		return resp, fmt.Errorf("%w: http status %d", herr.ErrTransport, httpResp.StatusCode)
	}
	return resp, nil
}

func (t *HTTPTransport) Close() error {
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryableLogAdapter routes go-retryablehttp's leveled log calls into
// this module's zerolog logger instead of the library's default
// standard-library logger.
type retryableLogAdapter struct {
	log zerolog.Logger
}

func (a retryableLogAdapter) Error(msg string, kv ...interface{}) {
	a.log.Error().Fields(kv).Msg(msg)
}
func (a retryableLogAdapter) Info(msg string, kv ...interface{}) {
	a.log.Info().Fields(kv).Msg(msg)
}
func (a retryableLogAdapter) Debug(msg string, kv ...interface{}) {
	a.log.Debug().Fields(kv).Msg(msg)
}
func (a retryableLogAdapter) Warn(msg string, kv ...interface{}) {
	a.log.Warn().Fields(kv).Msg(msg)
}
