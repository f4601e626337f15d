// Package genai talks to the text-generation service that produces
// script bodies. The service is a black box behind a single generate
// call; everything here is transport, retry, and response hygiene.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
	defaultUserAgent      = "swizzy/dev"
)

// ErrGenerationFailed is returned when the upstream generator responds
// without a success signal.
var ErrGenerationFailed = errors.New("script generation failed")

// Client is a generation-service client.
type Client struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client

	requestTimeout time.Duration
	maxAttempts    int
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	sleep          func(time.Duration)
	randInt63n     func(int64) int64
	now            func() time.Time
}

type rawResponse struct {
	StatusCode int
	RetryAfter string
	Body       []byte
}

// New creates a generation client against baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         apiKey,
		UserAgent:      defaultUserAgent,
		HTTPClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
		maxAttempts:    defaultMaxAttempts,
		baseBackoff:    defaultBaseBackoff,
		maxBackoff:     defaultMaxBackoff,
		sleep:          time.Sleep,
		randInt63n:     rand.Int63n,
		now:            time.Now,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

// Generate asks the upstream service for a script body implementing
// task. inputSchema describes the input_data mapping the script will
// receive; outputReqs describes the value the script must produce.
// Code fences around the returned text are stripped.
func (c *Client) Generate(ctx context.Context, task, inputSchema, outputReqs string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Prompt: buildPrompt(task, inputSchema, outputReqs),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	raw, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest("POST", c.BaseURL+"/v0/generate", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.setCommonHeaders(req)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	if raw.StatusCode != 200 {
		return "", parseAPIError(raw.StatusCode, raw.Body, raw.RetryAfter)
	}

	var result generateResponse
	if err := json.Unmarshal(raw.Body, &result); err != nil {
		return "", fmt.Errorf("parsing generate response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerationFailed, result.Error)
		}
		return "", ErrGenerationFailed
	}

	code := StripFences(result.Text)
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: generator returned empty script", ErrGenerationFailed)
	}
	return code, nil
}

func buildPrompt(task, inputSchema, outputReqs string) string {
	var b strings.Builder
	b.WriteString("Write a single expression script that performs this task:\n")
	b.WriteString(task)
	b.WriteString("\n\nThe script runs in a restricted scope with exactly these symbols:\n")
	b.WriteString("input_data, read_file, write_file, read_json, write_json, ")
	b.WriteString("read_excel, write_excel, read_excel_all, write_excel_all, ")
	b.WriteString("read_docx, write_docx, read_image, write_image, ")
	b.WriteString("encode_base64, decode_base64, plus the expression builtins.\n")
	if inputSchema != "" {
		b.WriteString("\ninput_data schema:\n")
		b.WriteString(inputSchema)
		b.WriteString("\n")
	}
	if outputReqs != "" {
		b.WriteString("\nThe script's value must satisfy:\n")
		b.WriteString(outputReqs)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn only the script body.")
	return b.String()
}

var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\n(.*?)```")

// StripFences removes a surrounding markdown code fence, if present.
func StripFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

func (c *Client) doWithRetry(ctx context.Context, makeRequest func() (*http.Request, error)) (*rawResponse, error) {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := makeRequest()
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		timeout := c.requestTimeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		req = req.WithContext(reqCtx)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			cancel()
			if attempt < maxAttempts && isRetryableTransportError(err) {
				c.sleepWithBackoff(attempt, "")
				continue
			}
			return nil, fmt.Errorf("generation request failed after %d attempt(s): %w", attempt, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		if readErr != nil {
			if attempt < maxAttempts && isRetryableTransportError(readErr) {
				c.sleepWithBackoff(attempt, "")
				continue
			}
			return nil, fmt.Errorf("reading response after %d attempt(s): %w", attempt, readErr)
		}

		if attempt < maxAttempts && shouldRetryStatus(resp.StatusCode) {
			c.sleepWithBackoff(attempt, resp.Header.Get("Retry-After"))
			continue
		}

		return &rawResponse{
			StatusCode: resp.StatusCode,
			RetryAfter: resp.Header.Get("Retry-After"),
			Body:       body,
		}, nil
	}

	return nil, fmt.Errorf("generation request failed after %d attempt(s)", maxAttempts)
}

func isRetryableTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

func shouldRetryStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func (c *Client) sleepWithBackoff(attempt int, retryAfterHeader string) {
	if d, ok := c.parseRetryAfter(retryAfterHeader); ok {
		c.sleep(d)
		return
	}

	base := c.baseBackoff
	if base <= 0 {
		base = defaultBaseBackoff
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay <= 0 {
			delay = defaultMaxBackoff
			break
		}
	}

	maxBackoff := c.maxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	if delay <= 0 {
		return
	}

	// Full jitter in [0, delay).
	if c.randInt63n != nil {
		delay = time.Duration(c.randInt63n(int64(delay)))
	}
	c.sleep(delay)
}

func (c *Client) parseRetryAfter(headerValue string) (time.Duration, bool) {
	v := strings.TrimSpace(headerValue)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		now := time.Now
		if c.now != nil {
			now = c.now
		}
		d := t.Sub(now())
		if d > 0 {
			return d, true
		}
	}
	return 0, false
}

// APIError is a typed error returned by the generation service, with
// the HTTP status code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *APIError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		if e.RetryAfter != "" {
			return fmt.Sprintf("rate limited by generation service; retry after %s", e.RetryAfter)
		}
		return "rate limited by generation service; retry in a moment"
	}
	if e.Code != "" {
		return fmt.Sprintf("generation service error %d: %s — %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("generation service error %d: %s", e.StatusCode, e.Message)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte, retryAfter string) error {
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       apiErr.Error.Code,
			Message:    apiErr.Error.Message,
			RetryAfter: retryAfter,
		}
	}
	return &APIError{StatusCode: statusCode, Message: string(body), RetryAfter: retryAfter}
}

func (c *Client) setCommonHeaders(req *http.Request) {
	userAgent := strings.TrimSpace(c.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	if c.APIKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}
