package docintel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufield/receipt-lens/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Endpoint:     endpoint,
		APIKey:       "test-key",
		Timeout:      5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	}, testLogger())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresEndpointAndKey(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "", APIKey: "k"}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = NewClient(Config{Endpoint: "https://example.test", APIKey: "   "}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestClient_Analyze(t *testing.T) {
	var sawKey, sawBase64 bool

	mux := http.NewServeMux()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":analyze") {
			sawKey = r.Header.Get("Ocp-Apim-Subscription-Key") == "test-key"
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, sawBase64 = body["base64Source"]

			w.Header().Set("Operation-Location", "http://"+r.Host+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	polls := 0
	mux.HandleFunc("/operations/1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "succeeded",
			"analyzeResult": map[string]any{
				"apiVersion": "2024-11-30",
				"modelId":    "prebuilt-receipt",
				"content":    "CONTOSO",
				"documents": []map[string]any{
					{
						"docType":    "receipt.retailMeal",
						"confidence": 0.91,
						"fields": map[string]any{
							"MerchantName": map[string]any{
								"type":        "string",
								"valueString": "Contoso",
								"confidence":  0.97,
							},
						},
					},
				},
			},
		})
	})

	c := newTestClient(t, srv.URL)
	result, err := c.Analyze(context.Background(), "prebuilt-receipt", []byte{0x1, 0x2})
	require.NoError(t, err)

	assert.True(t, sawKey, "api key header not sent")
	assert.True(t, sawBase64, "image not sent as base64Source")
	assert.GreaterOrEqual(t, polls, 2)

	assert.Equal(t, "prebuilt-receipt", result.ModelID)
	assert.Equal(t, "CONTOSO", result.Content)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, 0.91, result.Documents[0].Confidence)
}

func TestClient_Analyze_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind common.AnalysisErrorKind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantKind: common.AnalysisAuthentication},
		{name: "forbidden", status: http.StatusForbidden, wantKind: common.AnalysisAuthentication},
		{name: "bad request", status: http.StatusBadRequest, wantKind: common.AnalysisInvalidRequest},
		{name: "server error", status: http.StatusInternalServerError, wantKind: common.AnalysisUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			_, err := c.Analyze(context.Background(), "prebuilt-receipt", []byte{0x1})
			require.Error(t, err)

			var analysisErr *common.AnalysisError
			require.ErrorAs(t, err, &analysisErr)
			assert.Equal(t, tt.wantKind, analysisErr.Kind)
		})
	}
}

func TestClient_Analyze_TransportError(t *testing.T) {
	// Nothing listens here.
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.Analyze(context.Background(), "prebuilt-receipt", []byte{0x1})
	require.Error(t, err)

	var analysisErr *common.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, common.AnalysisTransport, analysisErr.Kind)
}

func TestClient_Analyze_CancellationStopsPolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":analyze") {
			w.Header().Set("Operation-Location", "http://"+r.Host+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		// The operation never settles.
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	c := newTestClient(t, srv.URL)
	_, err := c.Analyze(ctx, "prebuilt-receipt", []byte{0x1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Analyze_OperationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":analyze") {
			w.Header().Set("Operation-Location", "http://"+r.Host+"/operations/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "failed",
			"error":  map[string]any{"code": "InvalidImage", "message": "image too small"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Analyze(context.Background(), "prebuilt-receipt", []byte{0x1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidImage")
}
