package calcservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
	"github.com/PolicyEngine/ACA-Calc/internal/ports"
)

var _ ports.ICalculationStream = (*StreamTransport)(nil)

// StreamTransport — потоковый путь: POST на stream-эндпоинт и чтение server-sent events.
type StreamTransport struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// NewStreamTransport создаёт транспорт. client == nil — http.Client без таймаута (поток длинный).
func NewStreamTransport(cfg Config, client *http.Client, log *slog.Logger) *StreamTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &StreamTransport{cfg: cfg, client: client, log: log}
}

// Stream отправляет запрос и разбирает поток. onProgress вызывается синхронно, в порядке прихода.
// Битые записи пропускаются. Поток без финальной записи — domain.ErrStreamIncomplete.
func (s *StreamTransport) Stream(ctx context.Context, req domain.CalculationRequest, onProgress func(domain.ProgressEvent)) (*domain.CalculationResult, error) {
	parent := ctx
	if s.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.StreamTimeout)
		defer cancel()
	}

	body, err := requestBody(req)
	if err != nil {
		return nil, fmt.Errorf("encode stream request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.streamURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, s.transportError(parent, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &domain.CalculationFailed{Status: resp.StatusCode, Detail: errorDetail(detail)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &domain.NetworkError{Op: "stream", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var dec Decoder
	buf := make([]byte, s.cfg.chunkSize())
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, payload := range dec.Feed(buf[:n]) {
				if err := ctx.Err(); err != nil {
					return nil, s.transportError(parent, err)
				}
				ev, err := ParseEvent(payload)
				if err != nil {
					s.log.Warn("skip malformed stream record", "error", err)
					continue
				}
				switch e := ev.(type) {
				case ProgressEvent:
					s.log.Debug("calculation progress", "step", e.Step, "progress", e.Percent)
					if onProgress != nil {
						onProgress(e.Progress())
					}
				case CompleteEvent:
					return e.Result, nil
				case ErrorEvent:
					return nil, &domain.StreamError{Message: e.Message}
				}
			}
		}
		if readErr == io.EOF {
			if dec.Pending() {
				s.log.Warn("stream closed mid-record")
			}
			return nil, domain.ErrStreamIncomplete
		}
		if readErr != nil {
			return nil, s.transportError(parent, readErr)
		}
	}
}

// transportError отделяет отмену вызывающим от сбоя транспорта (в т.ч. собственного таймаута).
func (s *StreamTransport) transportError(parent context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	return &domain.NetworkError{Op: "stream", Err: err}
}
