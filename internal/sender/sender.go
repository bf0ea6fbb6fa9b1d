// Package sender is the agent's HTTP client for the collector.
package sender

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	_ "github.com/go-tangra/go-tangra-facts/internal/codec"
)

const submitTimeout = 30 * time.Second

// Send connects to the collector at addr and submits the report. When
// secret is non-empty it is sent as the X-Client-Secret header. Returns
// the assigned record ID.
func Send(ctx context.Context, addr, secret string, report *api.Report) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	conn, err := dial(ctx, addr, secret)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var resp api.SubmitReportResponse
	req := &api.SubmitReportRequest{Report: report}
	if err := conn.Invoke(ctx, http.MethodPost, "/v1/reports", req, &resp); err != nil {
		return 0, fmt.Errorf("submit report: %w", err)
	}

	return resp.ID, nil
}

// PollCommands long-polls the collector for pending commands. The call
// blocks up to wait (server-capped) before returning an empty list.
func PollCommands(ctx context.Context, addr, secret, hostname, agentID, version string, wait time.Duration) ([]api.Command, error) {
	ctx, cancel := context.WithTimeout(ctx, wait+submitTimeout)
	defer cancel()

	conn, err := dial(ctx, addr, secret)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	q := url.Values{}
	q.Set("hostname", hostname)
	q.Set("agent_id", agentID)
	q.Set("version", version)
	q.Set("wait", wait.String())

	var resp api.PollCommandsResponse
	if err := conn.Invoke(ctx, http.MethodGet, "/v1/commands?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("poll commands: %w", err)
	}

	return resp.Commands, nil
}

func dial(ctx context.Context, addr, secret string) (*khttp.Client, error) {
	opts := []khttp.ClientOption{khttp.WithEndpoint(addr)}
	if secret != "" {
		opts = append(opts, khttp.WithMiddleware(clientSecret(secret)))
	}

	conn, err := khttp.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to collector: %w", err)
	}
	return conn, nil
}

// clientSecret attaches the X-Client-Secret header to outgoing calls.
func clientSecret(secret string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if tr, ok := transport.FromClientContext(ctx); ok {
				tr.RequestHeader().Set("X-Client-Secret", secret)
			}
			return handler(ctx, req)
		}
	}
}
