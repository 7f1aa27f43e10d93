package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brevio/web/internal/logger"
	"brevio/web/internal/model"
	"brevio/web/internal/network"
	"brevio/web/internal/store"
)

const (
	SummarySlotKey = "video-summary"
	ErrorSlotKey   = "video-summary-error"

	SummaryTTL = time.Hour
	ErrorTTL   = 5 * time.Minute
)

// EmptySummaryMessage is persisted when the service answers 2xx without a summary.
const EmptySummaryMessage = "The summarization service returned an empty summary."

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 16 << 20

// SummaryService runs summarization exchanges and reads back their outcome.
type SummaryService interface {
	// Summarize posts videoURL to the summarization service and persists the
	// outcome in slots, replacing whatever the other slot held. A non-nil
	// error is always an *ExchangeError.
	Summarize(ctx context.Context, slots store.Store, videoURL string) (*model.SummaryRecord, error)
	// Current returns whatever outcome is persisted in slots. Unreadable slots
	// are reported as absent.
	Current(ctx context.Context, slots store.Store) (*model.SummaryRecord, *model.ErrorRecord, error)
}

type SummaryServiceConfig struct {
	Endpoint  string
	Timeout   time.Duration
	UserAgent string
}

type summaryService struct {
	cfg         SummaryServiceConfig
	clients     *network.ClientFactory
	rateLimiter *RateLimiter
}

// NewSummaryService creates a new summary service. rateLimiter may be nil.
func NewSummaryService(cfg SummaryServiceConfig, clients *network.ClientFactory, rateLimiter *RateLimiter) SummaryService {
	if clients == nil {
		clients = network.NewDirectClientFactory()
	}
	return &summaryService{cfg: cfg, clients: clients, rateLimiter: rateLimiter}
}

type summarizeRequest struct {
	URL string `json:"url"`
}

// upstreamBody is a JSON object from the summarization service, fields kept
// raw so each one is decoded on its own.
type upstreamBody map[string]json.RawMessage

func parseUpstreamBody(data []byte) (upstreamBody, error) {
	var body upstreamBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body, nil
}

// errorMessage reports whether the body carries an error and its text. A
// string is used as is; any other non-null value still marks a failure but
// leaves the message to the status-based default.
func (b upstreamBody) errorMessage() (string, bool) {
	raw, ok := b["error"]
	if !ok || isJSONNull(raw) {
		return "", false
	}
	switch string(bytes.TrimSpace(raw)) {
	case "false", "0":
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("upstream error field not a string", "module", "service", "action", "fetch", "resource", "summary", "result", "failed", "error", err)
		return "", true
	}
	if msg == "" {
		return "", false
	}
	return msg, true
}

// summary returns the summary text; a missing or non-string value is empty.
func (b upstreamBody) summary() string {
	var s string
	_ = b.optional("summary", &s)
	return s
}

// optional decodes one passthrough field into dst. A wrongly typed value is
// dropped and reported as false.
func (b upstreamBody) optional(key string, dst any) bool {
	raw, ok := b[key]
	if !ok || isJSONNull(raw) {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Debug("upstream field dropped", "module", "service", "action", "fetch", "resource", "summary", "result", "failed", "field", key, "error", err)
		return false
	}
	return true
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func (s *summaryService) Summarize(ctx context.Context, slots store.Store, videoURL string) (*model.SummaryRecord, error) {
	// A submitted exchange runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	record, err := s.exchange(ctx, videoURL)
	if err != nil {
		xerr := AsExchangeError(err)
		logger.Warn("summarize failed", "module", "service", "action", "fetch", "resource", "summary", "result", "failed", "kind", xerr.Kind.String(), "status_code", xerr.StatusCode, "duration_ms", time.Since(start).Milliseconds(), "error", xerr)
		s.persistError(ctx, slots, xerr)
		return nil, xerr
	}

	logger.Info("summarize completed", "module", "service", "action", "fetch", "resource", "summary", "result", "ok", "duration_ms", time.Since(start).Milliseconds(), "summary_len", len(record.Summary))
	s.persistSummary(ctx, slots, record)
	return record, nil
}

func (s *summaryService) exchange(ctx context.Context, videoURL string) (*model.SummaryRecord, error) {
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, &ExchangeError{Kind: KindTransport, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	payload, err := json.Marshal(summarizeRequest{URL: videoURL})
	if err != nil {
		return nil, &ExchangeError{Kind: KindTransport, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &ExchangeError{Kind: KindTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	logger.Debug("summarize request", "module", "service", "action", "fetch", "resource", "summary", "result", "ok", "endpoint", s.cfg.Endpoint, "url", videoURL)

	client := s.clients.NewHTTPClient(ctx, s.cfg.Timeout)
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ExchangeError{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	body, parseErr := parseUpstreamBody(data)

	if !isSuccess(resp.StatusCode) {
		if parseErr != nil {
			// Not a JSON object. Any other valid JSON still counts as a
			// structured failure with the status-based message.
			if !json.Valid(data) {
				return nil, &ExchangeError{Kind: KindParse, StatusCode: resp.StatusCode, Err: parseErr}
			}
			return nil, &ExchangeError{Kind: KindApplication, StatusCode: resp.StatusCode}
		}
		msg, _ := body.errorMessage()
		return nil, &ExchangeError{Kind: KindApplication, StatusCode: resp.StatusCode, Message: msg}
	}

	if parseErr != nil {
		return nil, &ExchangeError{Kind: KindParse, StatusCode: resp.StatusCode, Err: parseErr}
	}
	if msg, failed := body.errorMessage(); failed {
		if msg == "" {
			msg = FallbackMessage
		}
		return nil, &ExchangeError{Kind: KindApplication, StatusCode: resp.StatusCode, Message: msg}
	}

	summary := body.summary()
	if strings.TrimSpace(summary) == "" {
		return nil, &ExchangeError{Kind: KindApplication, StatusCode: resp.StatusCode, Message: EmptySummaryMessage}
	}

	record := &model.SummaryRecord{Summary: summary, KeyPoints: []string{}}
	body.optional("transcript", &record.Transcript)
	body.optional("videoId", &record.VideoID)
	body.optional("title", &record.Title)
	body.optional("duration", &record.Duration)
	var keyPoints []string
	if body.optional("keyPoints", &keyPoints) && keyPoints != nil {
		record.KeyPoints = keyPoints
	} else {
		logger.Debug("summary has no key points", "module", "service", "action", "fetch", "resource", "summary", "result", "ok")
	}
	return record, nil
}

func (s *summaryService) persistSummary(ctx context.Context, slots store.Store, record *model.SummaryRecord) {
	data, err := json.Marshal(record)
	if err != nil {
		logger.Error("summary encode failed", "module", "service", "action", "save", "resource", "summary", "result", "failed", "error", err)
		return
	}
	if err := store.Replace(ctx, slots, SummarySlotKey, data, SummaryTTL, ErrorSlotKey); err != nil {
		logger.Warn("summary slot write failed", "module", "service", "action", "save", "resource", "summary", "result", "failed", "error", err)
	}
}

func (s *summaryService) persistError(ctx context.Context, slots store.Store, xerr *ExchangeError) {
	data, err := json.Marshal(xerr.Record())
	if err != nil {
		logger.Error("error record encode failed", "module", "service", "action", "save", "resource", "summary", "result", "failed", "error", err)
		return
	}
	if err := store.Replace(ctx, slots, ErrorSlotKey, data, ErrorTTL, SummarySlotKey); err != nil {
		logger.Warn("error slot write failed", "module", "service", "action", "save", "resource", "summary", "result", "failed", "error", err)
	}
}

func (s *summaryService) Current(ctx context.Context, slots store.Store) (*model.SummaryRecord, *model.ErrorRecord, error) {
	summary, err := readSlot[model.SummaryRecord](ctx, slots, SummarySlotKey)
	if err != nil {
		return nil, nil, err
	}
	if summary != nil && summary.KeyPoints == nil {
		summary.KeyPoints = []string{}
	}

	errRecord, err := readSlot[model.ErrorRecord](ctx, slots, ErrorSlotKey)
	if err != nil {
		return nil, nil, err
	}
	if errRecord != nil && errRecord.Error == "" {
		errRecord = nil
	}
	return summary, errRecord, nil
}

func readSlot[T any](ctx context.Context, slots store.Store, key string) (*T, error) {
	data, err := slots.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logger.Debug("slot unreadable", "module", "service", "action", "fetch", "resource", "slot", "result", "failed", "key", key, "error", err)
		return nil, nil
	}
	return &v, nil
}

