// Package notify sends text notifications to users' phones.
//
// Delivery is at most once: a provider makes a single attempt and reports the
// outcome in a Result. Nothing is retried or queued.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Provider names
const (
	ProviderLog      = "log"
	ProviderWhatsApp = "whatsapp"
)

// Result is the outcome of one delivery attempt
type Result struct {
	Success   bool   `json:"success"`
	Provider  string `json:"provider"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Provider delivers a message to a phone number. Failures are reported in
// the Result, never returned as errors.
type Provider interface {
	Name() string
	Send(ctx context.Context, phone, message string) Result
}

// LogProvider records the message in the log and always succeeds
type LogProvider struct {
	log *zap.Logger
}

// NewLogProvider creates a log provider
func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: logger.OrNop(log)}
}

// Name implements Provider
func (p *LogProvider) Name() string { return ProviderLog }

// Send implements Provider
func (p *LogProvider) Send(_ context.Context, phone, message string) Result {
	id := uuid.New().String()
	p.log.Info("SMS (log provider)",
		zap.String("message_id", id),
		zap.String("phone", phone),
		zap.Int("length", len(message)))
	return Result{Success: true, Provider: ProviderLog, MessageID: id}
}

// WhatsAppConfig configures the WhatsApp bridge
type WhatsAppConfig struct {
	Endpoint      string
	APIKey        string
	SuccessMarker string
	Timeout       time.Duration
}

// ErrNoSuccessMarker is returned for a bridge config without a success marker
var ErrNoSuccessMarker = errors.New("whatsapp: success marker is required")

// WhatsAppProvider sends messages through an HTTP WhatsApp bridge
type WhatsAppProvider struct {
	cfg      WhatsAppConfig
	endpoint *url.URL
	client   *http.Client
	log      *zap.Logger
}

// NewWhatsAppProvider creates a WhatsApp provider. The endpoint must be an
// absolute http(s) URL and may carry its own query parameters. A nil client
// gets one with cfg.Timeout.
func NewWhatsAppProvider(cfg WhatsAppConfig, client *http.Client, log *zap.Logger) (*WhatsAppProvider, error) {
	if strings.TrimSpace(cfg.SuccessMarker) == "" {
		return nil, ErrNoSuccessMarker
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: parse endpoint: %w", err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("whatsapp: endpoint %q is not an absolute http(s) URL", cfg.Endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &WhatsAppProvider{cfg: cfg, endpoint: endpoint, client: client, log: logger.OrNop(log)}, nil
}

// Name implements Provider
func (p *WhatsAppProvider) Name() string { return ProviderWhatsApp }

// NormalizePhone strips whitespace and a leading '+'
func NormalizePhone(phone string) string {
	phone = strings.Join(strings.Fields(phone), "")
	return strings.TrimPrefix(phone, "+")
}

// Send implements Provider
func (p *WhatsAppProvider) Send(ctx context.Context, phone, message string) Result {
	fail := func(err error) Result {
		p.log.Warn("WhatsApp delivery failed", zap.String("phone", phone), zap.Error(err))
		return Result{Provider: ProviderWhatsApp, Error: err.Error()}
	}

	target := *p.endpoint
	query := target.Query()
	query.Set("phone", NormalizePhone(phone))
	query.Set("text", message)
	query.Set("apikey", p.cfg.APIKey)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fail(fmt.Errorf("build request: %w", err))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("call bridge: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fail(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("bridge returned status %d", resp.StatusCode))
	}
	if !strings.Contains(string(body), p.cfg.SuccessMarker) {
		return fail(fmt.Errorf("bridge did not confirm delivery: %.200s", body))
	}

	p.log.Info("WhatsApp message queued", zap.String("phone", phone))
	return Result{Success: true, Provider: ProviderWhatsApp}
}
