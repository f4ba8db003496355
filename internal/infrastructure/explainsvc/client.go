package explainsvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/pkg/restclient"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

// Config — адрес сервиса объяснений. Timeout 0 — без ограничения.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" default:"http://localhost:8000"`
	Path    string        `envconfig:"ENDPOINT" default:"/api/explain"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"0s"`
}

func (c Config) url() string {
	path := c.Path
	if path == "" {
		path = "/api/explain"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

var _ ports.IExplanationService = (*Client)(nil)

// Client реализует ports.IExplanationService. Любая ошибка — *domain.ExplanationFailed,
// кроме отмены ctx, которая возвращается как есть.
type Client struct {
	cfg Config
	rc  *restclient.Client
	log *slog.Logger
}

// New создаёт клиента. rc == nil — собственный fasthttp-клиент.
func New(cfg Config, rc *restclient.Client, log *slog.Logger) *Client {
	if rc == nil {
		rc = restclient.New("acacalc")
	}
	return &Client{cfg: cfg, rc: rc, log: log}
}

// Explain запрашивает повествование по сводке расчёта.
func (c *Client) Explain(ctx context.Context, req domain.ExplanationRequest) (*domain.ExplanationResult, error) {
	if req.DependentAges == nil {
		req.DependentAges = []int{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &domain.ExplanationFailed{Detail: "encode request", Err: err}
	}

	resp, err := c.rc.PostJSON(ctx, c.cfg.url(), body, c.cfg.Timeout)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn("explain request failed", "error", err)
		return nil, &domain.ExplanationFailed{Err: err}
	}
	if !resp.OK() {
		detail := detailOf(resp.Body)
		c.log.Warn("explain request rejected", "status", resp.Status, "detail", detail)
		return nil, &domain.ExplanationFailed{Status: resp.Status, Detail: detail}
	}

	var res domain.ExplanationResult
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		return nil, &domain.ExplanationFailed{Status: resp.Status, Detail: "invalid explanation response", Err: err}
	}
	if len(res.Sections) == 0 {
		return nil, &domain.ExplanationFailed{Status: resp.Status, Detail: "explanation has no sections"}
	}
	return &res, nil
}

func detailOf(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
