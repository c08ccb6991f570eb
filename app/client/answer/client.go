// Package answer talks to the answering service over its /ask endpoint.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"novachat/app/config"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	DefaultTimeout = 2 * time.Minute
	DefaultTopK    = 6
)

type Client struct {
	baseURL string
	timeout time.Duration
	topK    int
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(cfg.Answer.BaseURL, cfg.Answer.Timeout, cfg.Answer.TopK), nil
}

func New(baseURL string, timeout time.Duration, topK int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		topK:    topK,
	}
}

// Ask posts the question and decodes the answer. The returned error message is meant for humans:
// for rejected requests it is the service's detail text.
func (c *Client) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	timeout, err := c.effectiveTimeout(ctx)
	if err != nil {
		return nil, err
	}

	payload := *req
	if payload.TopK == 0 {
		payload.TopK = c.topK
	}
	if payload.Messages == nil {
		payload.Messages = []HistoryMessage{}
	}

	agent := fiber.Post(c.baseURL + "/ask")
	agent.JSON(payload)
	agent.Timeout(timeout)
	if err = agent.Parse(); err != nil {
		return nil, oops.In("answer").Code("transport").Wrapf(err, "invalid answering service url")
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, oops.
			In("answer").
			Code("transport").
			With("url", c.baseURL).
			Wrapf(errors.Join(errs...), "answering service unreachable")
	}

	if code < 200 || code >= 300 {
		return nil, oops.
			In("answer").
			Code("status").
			With("status", code).
			Errorf("%s", errorDetail(code, body))
	}

	var response AskResponse
	if err = json.Unmarshal(body, &response); err != nil {
		return nil, oops.
			In("answer").
			Code("malformed").
			Wrapf(err, "malformed answer payload")
	}

	return &response, nil
}

func (c *Client) Health(ctx context.Context) error {
	timeout, err := c.effectiveTimeout(ctx)
	if err != nil {
		return err
	}

	agent := fiber.Get(c.baseURL + "/health")
	agent.Timeout(timeout)
	if err = agent.Parse(); err != nil {
		return oops.In("answer").Code("transport").Wrapf(err, "invalid answering service url")
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return oops.In("answer").Code("transport").Wrapf(errors.Join(errs...), "answering service unreachable")
	}
	if code != fiber.StatusOK {
		return oops.In("answer").Code("status").With("status", code).Errorf("%s", errorDetail(code, body))
	}

	return nil
}

// effectiveTimeout never lets a call outlive the context deadline.
// fasthttp has no context support, so the deadline is all that carries over.
func (c *Client) effectiveTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, oops.In("answer").Code("transport").Wrapf(err, "request aborted")
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	return timeout, nil
}

func errorDetail(code int, body []byte) string {
	var response errorResponse
	if err := json.Unmarshal(body, &response); err == nil {
		if detail, ok := response.Detail.(string); ok && strings.TrimSpace(detail) != "" {
			return detail
		}
	}

	return fmt.Sprintf("Request failed with status code %d", code)
}
