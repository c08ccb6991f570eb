package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"novachat/app/client/answer"
	"novachat/app/client/clipboard"
	"novachat/app/service/assistant"
	"novachat/app/service/intent"
	"novachat/app/service/request"
	"novachat/app/service/storage"
	"novachat/app/service/thread"
	"novachat/app/service/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAsker struct{}

func (echoAsker) Ask(_ context.Context, req *answer.AskRequest) (*answer.AskResponse, error) {
	return &answer.AskResponse{Answer: "re: " + req.Question}, nil
}

type recordingAnswerer struct {
	got *answer.AskRequest
}

func (r *recordingAnswerer) Ask(_ context.Context, req *answer.AskRequest) (*answer.AskResponse, error) {
	r.got = req
	return &answer.AskResponse{Answer: "ok", Intent: "chat", Sources: []answer.Source{}}, nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) Health(context.Context) error {
	return f.err
}

func newWorkspace() *workspace.Service {
	threads := thread.NewStore(storage.NewMemory())
	threads.Load()

	return workspace.NewService(
		threads,
		request.NewController(echoAsker{}, threads),
		clipboard.New(func(string) error { return nil }),
	)
}

func newTestServer(answerer Answerer, pinger Pinger) *Server {
	return NewServer(context.Background(), ":0", answerer, pinger, newWorkspace())
}

func call(t *testing.T, s *Server, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func detailOf(t *testing.T, data []byte) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp.Detail
}

func TestHealth(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestAskAppliesDefaults(t *testing.T) {
	answerer := &recordingAnswerer{}
	s := newTestServer(answerer, fakePinger{})

	code, data := call(t, s, http.MethodPost, "/ask", map[string]any{"question": "hi"})
	require.Equal(t, http.StatusOK, code, string(data))
	assert.JSONEq(t, `{"answer":"ok","intent":"chat","sources":[],"grounded":false,"has_context":false}`, string(data))

	require.NotNil(t, answerer.got)
	assert.Equal(t, 5, answerer.got.TopK)
	assert.Equal(t, answer.ModeAuto, answerer.got.Mode)
	assert.False(t, answerer.got.UseWeb)
}

func TestAskValidation(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, _ := call(t, s, http.MethodPost, "/ask", map[string]any{"question": "hi", "top_k": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, s, http.MethodPost, "/ask", map[string]any{"question": "hi", "mode": "voice"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, s, http.MethodPost, "/ask", map[string]any{
		"question": "hi",
		"messages": []map[string]string{{"role": "system", "content": "x"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAskEmptyQuestion(t *testing.T) {
	s := newTestServer(assistant.NewService(nil, nil), fakePinger{})

	code, data := call(t, s, http.MethodPost, "/ask", map[string]any{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Question cannot be empty", detailOf(t, data))
}

func TestSendMessageAndWait(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodPost, "/api/messages?wait=true", sendRequest{Text: "Explain closures"})
	require.Equal(t, http.StatusOK, code, string(data))

	var th thread.Thread
	require.NoError(t, json.Unmarshal(data, &th))
	assert.Equal(t, "Explain closures", th.Title)
	require.Len(t, th.Messages, 2)
	assert.Equal(t, "re: Explain this in simple terms with practical examples: Explain closures", th.Messages[1].Content)

	code, data = call(t, s, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, code)

	var snap workspace.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Len(t, snap.Threads, 1)
	assert.Equal(t, th.ID, snap.Selection.ActiveThreadID)
	assert.True(t, snap.CanCreateNewThread)
}

func TestSendMessageAccepted(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodPost, "/api/messages", sendRequest{Text: "hello"})
	require.Equal(t, http.StatusAccepted, code)

	var resp pendingResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.NotEmpty(t, resp.ThreadID)
}

func TestSendEmptyMessage(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodPost, "/api/messages", sendRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, workspace.ErrEmptyMessage.Error(), detailOf(t, data))
}

func TestRegenerateWithoutThread(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, _ := call(t, s, http.MethodPost, "/api/regenerate/nope", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestThreadCommandsReportNoOps(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, _ := call(t, s, http.MethodPost, "/api/threads", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = call(t, s, http.MethodPut, "/api/threads/missing/active", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, s, http.MethodDelete, "/api/threads/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActions(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodGet, "/api/actions", nil)
	require.Equal(t, http.StatusOK, code)
	var catalog []intent.CatalogEntry
	require.NoError(t, json.Unmarshal(data, &catalog))
	assert.Len(t, catalog, len(intent.Catalog()))

	code, data = call(t, s, http.MethodPost, "/api/actions/compare", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"selectedAction":"compare"}`, string(data))

	code, _ = call(t, s, http.MethodPost, "/api/actions/dance", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, data = call(t, s, http.MethodDelete, "/api/actions", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"selectedAction":""}`, string(data))
}

func TestWebSearchToggle(t *testing.T) {
	s := newTestServer(&recordingAnswerer{}, fakePinger{})

	code, data := call(t, s, http.MethodPut, "/api/web-search", webSearchRequest{Enabled: true})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"webSearch":true}`, string(data))

	_, data = call(t, s, http.MethodPost, "/api/web-search/toggle", nil)
	assert.JSONEq(t, `{"webSearch":false}`, string(data))
}

func TestBackendHealth(t *testing.T) {
	code, _ := call(t, newTestServer(&recordingAnswerer{}, fakePinger{}), http.MethodGet, "/api/backend/health", nil)
	assert.Equal(t, http.StatusOK, code)

	code, data := call(t, newTestServer(&recordingAnswerer{}, fakePinger{err: errors.New("down")}), http.MethodGet, "/api/backend/health", nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "down", detailOf(t, data))
}
