package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raine/virtual-closet/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func post(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthText, rec.Body.String())
}

func TestComplete_Success(t *testing.T) {
	completer := &fakeCompleter{reply: `{"outfit":{}}`}
	h := New(completer).Handler()

	for _, path := range []string{"/api/generate-outfit", "/api/extract-product"} {
		t.Run(path, func(t *testing.T) {
			rec, body := post(t, h, path, `{"prompt":"  style me  "}`)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, `{"outfit":{}}`, body["result"])
			assert.Equal(t, "style me", completer.prompt)
		})
	}
}

func TestComplete_EmptyResultIsStillAResult(t *testing.T) {
	rec, body := post(t, New(&fakeCompleter{}).Handler(), "/api/generate-outfit", `{"prompt":"p"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "result")
}

func TestComplete_PromptRequired(t *testing.T) {
	h := New(&fakeCompleter{}).Handler()
	for _, in := range []string{`{}`, `{"prompt":""}`, `{"prompt":"   "}`} {
		rec, body := post(t, h, "/api/generate-outfit", in)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Prompt is required", body["error"])
	}

	rec, body := post(t, h, "/api/generate-outfit", `{"prompt":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestComplete_NoCompleter(t *testing.T) {
	rec, body := post(t, New(nil).Handler(), "/api/generate-outfit", `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "API key not configured on the server", body["error"])
}

func TestComplete_CompleterFailure(t *testing.T) {
	h := New(&fakeCompleter{err: &llm.ServiceError{Message: "quota exceeded"}}).Handler()
	rec, body := post(t, h, "/api/generate-outfit", `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quota exceeded", body["error"])
}

func TestRelayClientRoundTrip(t *testing.T) {
	ts := httptest.NewServer(New(&fakeCompleter{reply: "hello"}).Handler())
	defer ts.Close()

	client := llm.NewRelayClient(llm.RelayOpts{URL: ts.URL + "/api/generate-outfit"})
	text, err := client.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	failing := httptest.NewServer(New(&fakeCompleter{err: errors.New("upstream down")}).Handler())
	defer failing.Close()

	_, err = llm.NewRelayClient(llm.RelayOpts{URL: failing.URL + "/api/generate-outfit"}).Complete(context.Background(), "p")
	var svcErr *llm.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Equal(t, "upstream down", svcErr.Message)
}
