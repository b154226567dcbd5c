// internal/adapters/shopify/client.go
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ammerola/stocksync/internal/core/domain"
	"github.com/ammerola/stocksync/internal/pkg/retry"
)

var errThrottled = errors.New("throttled")

// Client talks to one shop's Admin GraphQL API.
type Client struct {
	shop     string
	endpoint string
	token    string
	http     *http.Client
	timeout  time.Duration
	retry    retry.Policy
	logger   *slog.Logger

	limiter       *rate.Limiter
	pauseEvery    int
	pauseDuration time.Duration
	locationPage  int

	mu        sync.Mutex
	mutations int
}

// graphql executes one request under the given retry classifier and decodes
// data into out.
func (c *Client) graphql(ctx context.Context, op, query string, vars map[string]any, retryable func(error) bool, out any) error {
	policy := c.retry
	policy.Name = op
	policy.Retryable = retryable

	return policy.Do(ctx, func(ctx context.Context) error {
		return c.do(ctx, op, query, vars, out)
	})
}

func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		te := &domain.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			te.Err = fmt.Errorf("%w: %s", errThrottled, te.Err)
		}
		return te
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return &domain.TransportError{Op: op, Retryable: errors.Is(err, io.ErrUnexpectedEOF), Err: fmt.Errorf("decode response: %w", err)}
	}

	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		throttled := false
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
			if e.Extensions.Code == "THROTTLED" {
				throttled = true
			}
		}
		err := errors.New(strings.Join(msgs, "; "))
		if throttled {
			err = fmt.Errorf("%w: %s", errThrottled, err)
		}
		return &domain.TransportError{Op: op, Retryable: throttled, Err: err}
	}

	if out == nil || len(gr.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// beforeMutation paces mutations against the shop's request budget.
func (c *Client) beforeMutation(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.mutations++
	pause := c.pauseEvery > 0 && c.mutations%c.pauseEvery == 0
	c.mu.Unlock()

	if pause && c.pauseDuration > 0 {
		c.logger.DebugContext(ctx, "pausing between mutation batches",
			slog.Duration("pause", c.pauseDuration))
		timer := time.NewTimer(c.pauseDuration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// IsRetryable reports transient read failures: 5xx, 429, THROTTLED,
// timeouts and network errors.
func IsRetryable(err error) bool {
	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsThrottled reports failures where the platform refused the request before
// executing it, so a mutation is safe to resend.
func IsThrottled(err error) bool {
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return errors.Is(err, errThrottled)
}

func userErrorsToBusinessError(op string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.Join(e.Field, "."), e.Message))
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	return &domain.BusinessError{Op: op, Messages: msgs}
}
