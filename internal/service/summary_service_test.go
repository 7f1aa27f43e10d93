package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"brevio/web/internal/model"
	"brevio/web/internal/network"
	"brevio/web/internal/service"
	"brevio/web/internal/store"
	"brevio/web/internal/store/mock"
)

const testVideoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(endpoint string) service.SummaryService {
	return service.NewSummaryService(
		service.SummaryServiceConfig{Endpoint: endpoint, UserAgent: "Brevio/test"},
		network.NewDirectClientFactory(),
		service.NewRateLimiter(100),
	)
}

// seedBoth fills both slots so exclusivity is checked against prior state.
func seedBoth(t *testing.T, slots store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, slots.Set(ctx, service.SummarySlotKey, []byte(`{"summary":"stale"}`), time.Hour))
	require.NoError(t, slots.Set(ctx, service.ErrorSlotKey, []byte(`{"error":"stale"}`), time.Hour))
}

func requireErrorOutcome(t *testing.T, slots store.Store, record *model.SummaryRecord, err error, wantMsg string) *service.ExchangeError {
	t.Helper()
	require.Nil(t, record)
	require.Error(t, err)

	var xerr *service.ExchangeError
	require.True(t, errors.As(err, &xerr))
	require.Equal(t, wantMsg, xerr.UserMessage())

	ctx := context.Background()
	summary, _ := slots.Get(ctx, service.SummarySlotKey)
	require.Nil(t, summary, "success slot must be cleared")

	data, _ := slots.Get(ctx, service.ErrorSlotKey)
	var stored model.ErrorRecord
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Equal(t, wantMsg, stored.Error)
	return xerr
}

func TestSummaryService_Summarize_Success(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"summary": "a concise summary", "transcript": "full text"}`)
	}))
	defer srv.Close()

	slots := store.NewMemoryStore()
	seedBoth(t, slots)

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	require.NoError(t, err)
	require.Equal(t, "a concise summary", record.Summary)
	require.Equal(t, "full text", record.Transcript)
	require.Empty(t, record.VideoID)
	require.Empty(t, record.Title)
	require.Empty(t, record.Duration)
	require.NotNil(t, record.KeyPoints)
	require.Empty(t, record.KeyPoints)

	require.Equal(t, http.MethodPost, gotReq.Method)
	require.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	require.Contains(t, gotReq.Header.Get("Cache-Control"), "no-store")
	require.Equal(t, "Brevio/test", gotReq.Header.Get("User-Agent"))
	require.Equal(t, map[string]string{"url": testVideoURL}, gotBody)

	ctx := context.Background()
	errSlot, _ := slots.Get(ctx, service.ErrorSlotKey)
	require.Nil(t, errSlot, "error slot must be cleared")

	data, _ := slots.Get(ctx, service.SummarySlotKey)
	var stored model.SummaryRecord
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Equal(t, *record, stored)
}

func TestSummaryService_Summarize_OptionalFieldsPassThrough(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"summary":"s","videoId":"dQw4w9WgXcQ","title":"Never","duration":"3:33","keyPoints":["one","two"]}`)
	slots := store.NewMemoryStore()

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	require.NoError(t, err)
	require.Equal(t, "dQw4w9WgXcQ", record.VideoID)
	require.Equal(t, "Never", record.Title)
	require.Equal(t, "3:33", record.Duration)
	require.Equal(t, []string{"one", "two"}, record.KeyPoints)
}

func TestSummaryService_Summarize_TransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := "http://" + ln.Addr().String() + "/summarize"
	require.NoError(t, ln.Close())

	slots := store.NewMemoryStore()
	seedBoth(t, slots)

	record, err := newService(endpoint).Summarize(context.Background(), slots, testVideoURL)
	xerr := requireErrorOutcome(t, slots, record, err, service.FallbackMessage)
	require.Equal(t, service.KindTransport, xerr.Kind)
	require.ErrorIs(t, err, service.ErrTransport)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: lookup summarizer: no such host")
}

func TestSummaryService_Summarize_TransportRejects(t *testing.T) {
	svc := service.NewSummaryService(
		service.SummaryServiceConfig{Endpoint: "http://summarizer/summarize"},
		network.NewClientFactoryForTest(&http.Client{Transport: failingTransport{}}),
		nil,
	)
	slots := store.NewMemoryStore()

	record, err := svc.Summarize(context.Background(), slots, testVideoURL)
	requireErrorOutcome(t, slots, record, err, service.FallbackMessage)
	require.Contains(t, err.Error(), "no such host")
}

func TestSummaryService_Summarize_StatusWithStructuredBody(t *testing.T) {
	srv := newUpstream(t, http.StatusInternalServerError, `{"error": "rate limited"}`)
	slots := store.NewMemoryStore()
	seedBoth(t, slots)

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	xerr := requireErrorOutcome(t, slots, record, err, "rate limited")
	require.Equal(t, service.KindApplication, xerr.Kind)
	require.Equal(t, http.StatusInternalServerError, xerr.StatusCode)
	require.ErrorIs(t, err, service.ErrApplication)
}

func TestSummaryService_Summarize_StatusWithJSONButNoError(t *testing.T) {
	srv := newUpstream(t, http.StatusBadGateway, `{"detail": "upstream down"}`)
	slots := store.NewMemoryStore()

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	requireErrorOutcome(t, slots, record, err, "Request failed with status 502")
}

func TestSummaryService_Summarize_StatusWithUnparsableBody(t *testing.T) {
	srv := newUpstream(t, http.StatusInternalServerError, `<html>Internal Server Error</html>`)
	slots := store.NewMemoryStore()
	seedBoth(t, slots)

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	xerr := requireErrorOutcome(t, slots, record, err, "Request failed with status 500. Please check server logs.")
	require.Equal(t, service.KindParse, xerr.Kind)
	require.Contains(t, xerr.UserMessage(), "500")
	require.ErrorIs(t, err, service.ErrParse)
}

func TestSummaryService_Summarize_ApplicationErrorDespite200(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"error": "AI quota exceeded"}`)
	slots := store.NewMemoryStore()
	seedBoth(t, slots)

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	xerr := requireErrorOutcome(t, slots, record, err, "AI quota exceeded")
	require.Equal(t, service.KindApplication, xerr.Kind)
}

func TestSummaryService_Summarize_ErrorFieldOverridesSummary(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"summary": "ignored", "error": "partial failure"}`)
	slots := store.NewMemoryStore()

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	requireErrorOutcome(t, slots, record, err, "partial failure")
}

func TestSummaryService_Summarize_UnparsableSuccessBody(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `not json`)
	slots := store.NewMemoryStore()

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	xerr := requireErrorOutcome(t, slots, record, err, service.FallbackMessage)
	require.Equal(t, service.KindParse, xerr.Kind)
}

func TestSummaryService_Summarize_EmptySummary(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"summary": "  ", "transcript": "words"}`)
	slots := store.NewMemoryStore()

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	requireErrorOutcome(t, slots, record, err, service.EmptySummaryMessage)
}

func TestSummaryService_Summarize_LastWriteWins(t *testing.T) {
	ok := newUpstream(t, http.StatusOK, `{"summary": "second"}`)
	bad := newUpstream(t, http.StatusOK, `{"error": "first"}`)
	slots := store.NewMemoryStore()
	ctx := context.Background()

	_, err := newService(bad.URL).Summarize(ctx, slots, testVideoURL)
	require.Error(t, err)
	_, err = newService(ok.URL).Summarize(ctx, slots, testVideoURL)
	require.NoError(t, err)

	summary, errRecord, err := newService(ok.URL).Current(ctx, slots)
	require.NoError(t, err)
	require.Nil(t, errRecord)
	require.Equal(t, "second", summary.Summary)
}

func TestSummaryService_Summarize_NonReplacerStoreSetsThenClears(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newUpstream(t, http.StatusOK, `{"summary": "ok"}`)
	slots := mock.NewMockStore(ctrl)

	gomock.InOrder(
		slots.EXPECT().Set(gomock.Any(), service.SummarySlotKey, gomock.Any(), service.SummaryTTL).Return(nil),
		slots.EXPECT().Clear(gomock.Any(), service.ErrorSlotKey).Return(nil),
	)

	_, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	require.NoError(t, err)
}

func TestSummaryService_Summarize_ErrorUsesShortTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newUpstream(t, http.StatusOK, `{"error": "nope"}`)
	slots := mock.NewMockStore(ctrl)

	gomock.InOrder(
		slots.EXPECT().Set(gomock.Any(), service.ErrorSlotKey, []byte(`{"error":"nope"}`), 5*time.Minute).Return(nil),
		slots.EXPECT().Clear(gomock.Any(), service.SummarySlotKey).Return(nil),
	)

	_, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	require.Error(t, err)
}

func TestSummaryService_Summarize_PersistFailureKeepsOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newUpstream(t, http.StatusOK, `{"summary": "ok"}`)
	slots := mock.NewMockStore(ctrl)
	slots.EXPECT().Set(gomock.Any(), service.SummarySlotKey, gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
	require.NoError(t, err)
	require.Equal(t, "ok", record.Summary)
}

func TestSummaryService_Summarize_CallerCancelDoesNotAbort(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"summary": "finished"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	slots := store.NewMemoryStore()

	done := make(chan error, 1)
	go func() {
		_, err := newService(srv.URL).Summarize(ctx, slots, testVideoURL)
		done <- err
	}()

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)
}

func TestSummaryService_Current(t *testing.T) {
	svc := newService("http://unused")
	ctx := context.Background()

	slots := store.NewMemoryStore()
	summary, errRecord, err := svc.Current(ctx, slots)
	require.NoError(t, err)
	require.Nil(t, summary)
	require.Nil(t, errRecord)

	require.NoError(t, slots.Set(ctx, service.SummarySlotKey, []byte(`{"summary":"legacy"}`), time.Hour))
	summary, _, err = svc.Current(ctx, slots)
	require.NoError(t, err)
	require.Equal(t, "legacy", summary.Summary)
	require.NotNil(t, summary.KeyPoints, "key points default to an empty list")

	require.NoError(t, slots.Set(ctx, service.SummarySlotKey, []byte(`{broken`), time.Hour))
	require.NoError(t, slots.Set(ctx, service.ErrorSlotKey, []byte(`{"error":"boom"}`), time.Hour))
	summary, errRecord, err = svc.Current(ctx, slots)
	require.NoError(t, err)
	require.Nil(t, summary, "unparsable slot reads as absent")
	require.Equal(t, "boom", errRecord.Error)
}

func TestSummaryService_Current_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	slots := mock.NewMockStore(ctrl)
	slots.EXPECT().Get(gomock.Any(), service.SummarySlotKey).Return(nil, errors.New("db locked"))

	_, _, err := newService("http://unused").Current(context.Background(), slots)
	require.Error(t, err)
}

func TestSummaryService_Summarize_WronglyTypedOptionalFieldsAreDropped(t *testing.T) {
	cases := map[string]string{
		"key points as string": `{"summary":"a concise summary","keyPoints":"one, two","title":"Kept"}`,
		"title as number":      `{"summary":"a concise summary","title":123,"keyPoints":["one"]}`,
		"mixed key points":     `{"summary":"a concise summary","keyPoints":["one",2]}`,
		"transcript as object": `{"summary":"a concise summary","transcript":{"text":"x"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newUpstream(t, http.StatusOK, body)
			slots := store.NewMemoryStore()
			seedBoth(t, slots)

			record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
			require.NoError(t, err)
			require.Equal(t, "a concise summary", record.Summary)
			require.NotNil(t, record.KeyPoints)

			errSlot, _ := slots.Get(context.Background(), service.ErrorSlotKey)
			require.Nil(t, errSlot)
		})
	}
}

func TestSummaryService_Summarize_WronglyTypedFieldsKeepValidOnes(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"summary":"s","keyPoints":"one, two","title":"Kept","duration":42}`)

	record, err := newService(srv.URL).Summarize(context.Background(), store.NewMemoryStore(), testVideoURL)
	require.NoError(t, err)
	require.Equal(t, "Kept", record.Title)
	require.Empty(t, record.Duration)
	require.Equal(t, []string{}, record.KeyPoints)
}

func TestSummaryService_Summarize_NonStringErrorIsApplicationError(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"object error on 500", http.StatusInternalServerError, `{"error":{"message":"rate limited"}}`, "Request failed with status 500"},
		{"array body on 500", http.StatusInternalServerError, `["rate limited"]`, "Request failed with status 500"},
		{"object error on 200", http.StatusOK, `{"summary":"ignored","error":{"message":"quota"}}`, service.FallbackMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newUpstream(t, tc.status, tc.body)
			slots := store.NewMemoryStore()

			record, err := newService(srv.URL).Summarize(context.Background(), slots, testVideoURL)
			xerr := requireErrorOutcome(t, slots, record, err, tc.wantMsg)
			require.Equal(t, service.KindApplication, xerr.Kind)
		})
	}
}

func TestSummaryService_Summarize_FalsyErrorIsIgnored(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{"summary":"fine","error":null}`)

	record, err := newService(srv.URL).Summarize(context.Background(), store.NewMemoryStore(), testVideoURL)
	require.NoError(t, err)
	require.Equal(t, "fine", record.Summary)
}
