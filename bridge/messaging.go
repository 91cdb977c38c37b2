package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MessagingConfig configures the direct cross-chain messaging bridge
// client.
type MessagingConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	APIKey       string        `yaml:"api_key" json:"api_key"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// MessagingClient talks to a direct cross-chain messaging bridge: one
// submit call returns a transfer id, then the client polls until the
// transfer reaches a terminal status.
type MessagingClient struct {
	cfg    MessagingConfig
	client *http.Client
	logger *zap.Logger
}

// NewMessagingClient creates a messaging bridge client.
func NewMessagingClient(cfg MessagingConfig, logger *zap.Logger) *MessagingClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessagingClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(zap.String("component", "messaging_bridge")),
	}
}

func (c *MessagingClient) Name() string { return "messaging" }

type messagingSubmitResponse struct {
	TransferID string `json:"transfer_id"`
	TxHash     string `json:"tx_hash"`
}

type messagingStatusResponse struct {
	Status string `json:"status"` // pending | confirmed | failed
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

// Transfer submits the transfer and polls its status until terminal.
func (c *MessagingClient) Transfer(ctx context.Context, req TransferRequest, onProgress ProgressFunc) (*TransferResult, error) {
	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	emit(Progress{Step: StepInitializing, Message: "preparing bridge transfer"})

	submitted, err := c.submit(ctx, req)
	if err != nil {
		emit(Progress{Step: StepError, Message: err.Error()})
		return nil, err
	}

	c.logger.Info("bridge transfer submitted",
		zap.String("transfer_id", submitted.TransferID),
		zap.String("tx_hash", submitted.TxHash),
	)
	emit(Progress{Step: StepSubmitting, Message: "transaction submitted", TxHash: submitted.TxHash})
	emit(Progress{Step: StepAwaiting, Message: "awaiting confirmation", TxHash: submitted.TxHash})

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			emit(Progress{Step: StepError, Message: "bridge transfer timed out"})
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := c.status(ctx, submitted.TransferID)
		if err != nil {
			// Transient poll failures are tolerated; the next tick retries.
			c.logger.Warn("status poll failed", zap.Error(err))
			continue
		}

		switch status.Status {
		case "confirmed":
			tx := status.TxHash
			if tx == "" {
				tx = submitted.TxHash
			}
			emit(Progress{Step: StepCompleted, Message: "transfer confirmed", TxHash: tx})
			return &TransferResult{Success: true, TxHash: tx}, nil
		case "failed":
			msg := status.Error
			if msg == "" {
				msg = "bridge reported transfer failure"
			}
			emit(Progress{Step: StepError, Message: msg, TxHash: status.TxHash})
			return &TransferResult{Success: false, TxHash: status.TxHash, Err: msg}, nil
		}
	}
}

func (c *MessagingClient) submit(ctx context.Context, req TransferRequest) (*messagingSubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal transfer request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/transfers", strings.TrimRight(c.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("submit transfer: status %d: %s", resp.StatusCode, string(data))
	}

	var out messagingSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &out, nil
}

func (c *MessagingClient) status(ctx context.Context, transferID string) (*messagingStatusResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/transfers/%s", strings.TrimRight(c.cfg.BaseURL, "/"), transferID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poll status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("poll status: status %d: %s", resp.StatusCode, string(data))
	}

	var out messagingStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &out, nil
}

func (c *MessagingClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
}
