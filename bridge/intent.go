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

// IntentConfig configures the intent-based aggregator bridge client.
type IntentConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	APIKey       string        `yaml:"api_key" json:"api_key"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// IntentClient talks to an intent-based aggregator bridge: a quote call
// prices the transfer and yields an intent id, a second call executes that
// intent, and the client polls the intent until it settles.
type IntentClient struct {
	cfg    IntentConfig
	client *http.Client
	logger *zap.Logger
}

// NewIntentClient creates an aggregator bridge client.
func NewIntentClient(cfg IntentConfig, logger *zap.Logger) *IntentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(zap.String("component", "intent_bridge")),
	}
}

func (c *IntentClient) Name() string { return "intent" }

type intentQuoteResponse struct {
	IntentID string `json:"intent_id"`
	Fee      string `json:"fee"`
}

type intentExecuteResponse struct {
	TxHash string `json:"tx_hash"`
	Status string `json:"status"` // executing | settled | failed
	Error  string `json:"error,omitempty"`
}

// Transfer quotes, executes, and settles an intent.
func (c *IntentClient) Transfer(ctx context.Context, req TransferRequest, onProgress ProgressFunc) (*TransferResult, error) {
	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	emit(Progress{Step: StepInitializing, Message: "requesting bridge quote"})

	quote, err := c.quote(ctx, req)
	if err != nil {
		emit(Progress{Step: StepError, Message: err.Error()})
		return nil, err
	}

	c.logger.Info("intent quoted",
		zap.String("intent_id", quote.IntentID),
		zap.String("fee", quote.Fee),
	)
	emit(Progress{Step: StepSubmitting, Message: fmt.Sprintf("executing intent (fee %s)", quote.Fee)})

	state, err := c.execute(ctx, quote.IntentID)
	if err != nil {
		emit(Progress{Step: StepError, Message: err.Error()})
		return nil, err
	}
	emit(Progress{Step: StepAwaiting, Message: "awaiting settlement", TxHash: state.TxHash})

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if state.Status == "settled" {
			emit(Progress{Step: StepCompleted, Message: "intent settled", TxHash: state.TxHash})
			return &TransferResult{Success: true, TxHash: state.TxHash}, nil
		}
		if state.Status == "failed" {
			msg := state.Error
			if msg == "" {
				msg = "aggregator reported intent failure"
			}
			emit(Progress{Step: StepError, Message: msg, TxHash: state.TxHash})
			return &TransferResult{Success: false, TxHash: state.TxHash, Err: msg}, nil
		}

		select {
		case <-ctx.Done():
			emit(Progress{Step: StepError, Message: "intent settlement timed out"})
			return nil, ctx.Err()
		case <-ticker.C:
		}

		next, err := c.intentStatus(ctx, quote.IntentID)
		if err != nil {
			c.logger.Warn("intent status poll failed", zap.Error(err))
			continue
		}
		state = next
	}
}

func (c *IntentClient) quote(ctx context.Context, req TransferRequest) (*intentQuoteResponse, error) {
	var out intentQuoteResponse
	if err := c.post(ctx, "/v1/quotes", req, &out); err != nil {
		return nil, fmt.Errorf("quote intent: %w", err)
	}
	return &out, nil
}

func (c *IntentClient) execute(ctx context.Context, intentID string) (*intentExecuteResponse, error) {
	var out intentExecuteResponse
	payload := map[string]string{"intent_id": intentID}
	if err := c.post(ctx, "/v1/intents", payload, &out); err != nil {
		return nil, fmt.Errorf("execute intent: %w", err)
	}
	return &out, nil
}

func (c *IntentClient) intentStatus(ctx context.Context, intentID string) (*intentExecuteResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/intents/%s", strings.TrimRight(c.cfg.BaseURL, "/"), intentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poll intent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("poll intent: status %d: %s", resp.StatusCode, string(data))
	}

	var out intentExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode intent status: %w", err)
	}
	return &out, nil
}

func (c *IntentClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s", strings.TrimRight(c.cfg.BaseURL, "/"), path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *IntentClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
