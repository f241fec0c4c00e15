package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRelayURL     = "http://localhost:3000/api/generate-outfit"
	DefaultRelayTimeout = 15 * time.Second
)

type relayRequest struct {
	Prompt string `json:"prompt"`
}

type relayResponse struct {
	Success bool    `json:"success"`
	Result  *string `json:"result"`
	Error   string  `json:"error"`
}

type RelayOpts struct {
	URL     string
	Timeout time.Duration
}

// RelayClient calls the relay server that forwards prompts to the language
// model. It performs exactly one attempt per call.
type RelayClient struct {
	httpClient *resty.Client
	url        string
}

func NewRelayClient(opts RelayOpts) *RelayClient {
	c := RelayClient{url: DefaultRelayURL}
	if opts.URL != "" {
		c.url = opts.URL
	}
	timeout := DefaultRelayTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	c.httpClient = resty.New().
		SetDebug(false).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeaders(
			map[string]string{
				"Accept":       "application/json",
				"Content-Type": "application/json",
			},
		)

	return &c
}

// Complete implements Completer.
func (c *RelayClient) Complete(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	res, err := handleError(c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetBody(relayRequest{Prompt: prompt}).
		Post(c.url))
	if err != nil {
		return "", err
	}

	var body relayResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: failed to decode relay response: %v", ErrInvalidResponse, err)
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "relay reported failure without a message"
		}
		return "", &ServiceError{StatusCode: res.StatusCode(), Message: msg}
	}
	if body.Result == nil {
		return "", fmt.Errorf("%w: relay response has no result", ErrInvalidResponse)
	}

	log.Debug().
		Str("url", c.url).
		Int("promptChars", len(prompt)).
		Int("resultChars", len(*body.Result)).
		Dur("took", time.Since(started)).
		Msg("relay completion")

	return *body.Result, nil
}

// handleError maps transport failures and non-2xx responses onto the
// completion error taxonomy. Without this, failing responses would have nil
// error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		if isTimeout(err) {
			return res, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return res, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		msg := http.StatusText(res.StatusCode())
		var body relayResponse
		if json.Unmarshal(res.Body(), &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return res, &ServiceError{StatusCode: res.StatusCode(), Message: msg}
	}

	return res, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
