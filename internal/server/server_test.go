package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vibecode/internal/llm"
	"vibecode/internal/models"
	"vibecode/internal/sandbox"
	"vibecode/internal/session"
)

// scriptedLLM answers every Chat with response and streams chunks for every
// ChatStream.
type scriptedLLM struct {
	model    string
	response string
	chunks   []string
}

func (s *scriptedLLM) Chat(context.Context, []models.Message, llm.ChatOptions) (string, error) {
	return s.response, nil
}

func (s *scriptedLLM) ChatStream(context.Context, []models.Message, llm.ChatOptions) (<-chan llm.Chunk, error) {
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for _, text := range s.chunks {
			out <- llm.Chunk{Text: text}
		}
	}()
	return out, nil
}

func (s *scriptedLLM) Model() string         { return s.model }
func (s *scriptedLLM) SetModel(model string) { s.model = model }

func (s *scriptedLLM) ListModels(context.Context) ([]models.ModelInfo, error) {
	return []models.ModelInfo{{ID: "m1", Name: "m1"}, {ID: "m2", Name: "m2"}}, nil
}

type testEnv struct {
	mux      *http.ServeMux
	registry *session.Registry
	client   *scriptedLLM
	sandbox  *sandbox.StubSandbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, sandbox.NewStubSandbox())
}

// newTestEnvWith wires the server against sb. When sb is a *StubSandbox the
// env exposes it for workspace assertions.
func newTestEnvWith(t *testing.T, sb sandbox.Sandbox) *testEnv {
	t.Helper()
	client := &scriptedLLM{
		model:    "m1",
		response: "Enjoy!\n```index.html\n<h1>Hi</h1>\n```",
		chunks:   []string{"```index.html\n", "<h1>Hi</h1>\n", "```"},
	}
	stub, _ := sb.(*sandbox.StubSandbox)
	registry := session.NewRegistry(
		func(string) llm.Client { return client },
		&sandbox.StubProvisioner{Sandbox: sb},
		time.Hour,
	)
	t.Cleanup(func() {
		registry.DestroyAll(context.Background())
		registry.Close()
	})

	srv := NewServer(registry, client)
	return &testEnv{mux: srv.RegisterRoutes(), registry: registry, client: client, sandbox: stub}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return v
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, "POST", "/api/sessions", models.CreateSessionRequest{})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[models.SessionResponse](t, rec)
	if resp.SessionID == "" {
		t.Fatal("empty session_id")
	}
	return resp.SessionID
}

func TestCreateAndGetSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "GET", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session: %d", rec.Code)
	}
	resp := decodeBody[models.SessionResponse](t, rec)
	if resp.SessionID != id || resp.Status != "active" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t)
	for _, probe := range []struct{ method, path string }{
		{"GET", "/api/sessions/nope"},
		{"DELETE", "/api/sessions/nope"},
		{"GET", "/api/files/nope"},
		{"GET", "/api/preview/nope"},
	} {
		rec := env.do(t, probe.method, probe.path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", probe.method, probe.path, rec.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "DELETE", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := env.do(t, "GET", "/api/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestChatGeneratesAndDeploys(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "POST", "/api/chat", models.ChatRequest{SessionID: id, Prompt: "make a page"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: %d %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[models.ChatResponse](t, rec)

	if resp.Message != "Enjoy!" {
		t.Errorf("message = %q", resp.Message)
	}
	if !strings.Contains(string(resp.MessageHTML), "<p>") {
		t.Errorf("message_html not rendered: %q", resp.MessageHTML)
	}
	if len(resp.Files) != 1 || resp.Files[0] != "index.html" {
		t.Errorf("files = %v", resp.Files)
	}
	if resp.PreviewURL == "" {
		t.Error("preview_url missing")
	}

	if content, ok := env.sandbox.File(sandbox.WorkspaceDir + "/index.html"); !ok || string(content) != "<h1>Hi</h1>" {
		t.Errorf("workspace file = %q (ok=%v)", content, ok)
	}
}

func TestChatRequiresPrompt(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "POST", "/api/chat", models.ChatRequest{SessionID: id})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("chat without prompt = %d, want 400", rec.Code)
	}
}

func TestChatStreamEventOrder(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "GET", "/api/chat/stream?session_id="+id+"&prompt=page", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stream: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	var types []string
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if strings.HasPrefix(line, "event: ") {
			types = append(types, strings.TrimPrefix(line, "event: "))
		}
	}
	want := []string{"token", "token", "token", "code", "preview", "complete"}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d = %s, want %s (all: %v)", i, types[i], want[i], types)
		}
	}
}

func TestSetModel(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "POST", "/api/sessions/"+id+"/model", models.SetModelRequest{Model: "m2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set model: %d", rec.Code)
	}
	ev := decodeBody[models.StreamEvent](t, rec)
	if ev.Type != models.EventModelChanged || ev.Content != "m2" {
		t.Errorf("event = %+v", ev)
	}
	if env.client.Model() != "m2" {
		t.Errorf("client model = %q", env.client.Model())
	}
}

func TestSetModelRequiresModel(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "POST", "/api/sessions/"+id+"/model", models.SetModelRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("set empty model = %d, want 400", rec.Code)
	}
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list models: %d", rec.Code)
	}
	resp := decodeBody[struct {
		Models  []models.ModelInfo `json:"models"`
		Current string             `json:"current"`
	}](t, rec)
	if len(resp.Models) != 2 || resp.Current != "m1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestFileEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	env.do(t, "POST", "/api/chat", models.ChatRequest{SessionID: id, Prompt: "page"})

	rec := env.do(t, "GET", "/api/files/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list files: %d", rec.Code)
	}
	list := decodeBody[struct {
		Files []models.FileInfo `json:"files"`
	}](t, rec)
	if len(list.Files) != 1 || list.Files[0].Name != "index.html" {
		t.Fatalf("files = %+v", list.Files)
	}

	rec = env.do(t, "GET", "/api/files/"+id+"/index.html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get file: %d", rec.Code)
	}
	file := decodeBody[models.FileContent](t, rec)
	if file.Content != "<h1>Hi</h1>" {
		t.Errorf("content = %q", file.Content)
	}

	rec = env.do(t, "PUT", "/api/files/"+id+"/index.html", models.UpdateFileRequest{Content: "<p>edited</p>"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update file: %d %s", rec.Code, rec.Body.String())
	}
	if content, _ := env.sandbox.File(sandbox.WorkspaceDir + "/index.html"); string(content) != "<p>edited</p>" {
		t.Errorf("workspace after edit = %q", content)
	}

	if rec := env.do(t, "GET", "/api/files/"+id+"/missing.css", nil); rec.Code != http.StatusNotFound {
		t.Errorf("get missing file = %d, want 404", rec.Code)
	}
}

func TestRunEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	env.client.response = "```python\nprint('hi')\n```"
	env.sandbox.ExecFunc = func(cmd string) (*models.ExecResult, error) {
		if strings.HasPrefix(cmd, "python3") {
			return &models.ExecResult{Stdout: "hi\n"}, nil
		}
		return &models.ExecResult{}, nil
	}

	rec := env.do(t, "POST", "/api/run", models.RunRequest{SessionID: id, Prompt: "print hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("run: %d %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[models.RunResult](t, rec)
	if result.Output != "hi\n" || result.Retries != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.Code != "print('hi')" {
		t.Errorf("code = %q", result.Code)
	}
}

func TestPreviewDegradesBeforeSandbox(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)

	rec := env.do(t, "GET", "/api/preview/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: %d", rec.Code)
	}
	desc := decodeBody[models.PreviewDescriptor](t, rec)
	if desc.URL != "" {
		t.Errorf("expected empty descriptor before sandbox exists, got %+v", desc)
	}
}

func TestPreviewAfterChat(t *testing.T) {
	env := newTestEnv(t)
	id := env.createSession(t)
	env.do(t, "POST", "/api/chat", models.ChatRequest{SessionID: id, Prompt: "page"})

	rec := env.do(t, "GET", "/api/preview/"+id, nil)
	desc := decodeBody[models.PreviewDescriptor](t, rec)
	if desc.URL != "/proxy/"+id+"/" {
		t.Errorf("preview URL = %q", desc.URL)
	}
	if desc.Token != "" {
		t.Error("preview token leaked to the client")
	}
}
