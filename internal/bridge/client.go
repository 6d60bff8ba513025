package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaede/ski-trip-bot-go/internal/util"
	"github.com/kaede/ski-trip-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// Client sends replies to the chat bridge over HTTP. The circuit breaker
// sheds sends while the bridge is down so a flapping bridge does not pile
// up blocked goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: util.NewCircuitBreaker(3, 30*time.Second, logger),
		logger:  logger,
	}
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	if !c.breaker.CanExecute() {
		return errors.NewTransportError("bridge circuit open, dropping send", "/reply", nil)
	}

	req := ReplyRequest{
		Type: "text",
		Room: room,
		Data: message,
	}

	if err := c.doRequest(ctx, http.MethodPost, "/reply", req, nil); err != nil {
		c.breaker.RecordFailure()
		c.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("room", room),
		)
		return err
	}

	c.breaker.RecordSuccess()
	return nil
}

func (c *Client) Ping(ctx context.Context) bool {
	return c.doRequest(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewTransportError("failed to marshal request", path, err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewTransportError("failed to create request", path, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewTransportError("request failed", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return errors.NewTransportError(
			fmt.Sprintf("bridge API error: %s: %s", resp.Status, string(bodyBytes)),
			path, nil,
		)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewTransportError("failed to decode response", path, err)
		}
	}

	return nil
}
