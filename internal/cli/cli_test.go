package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// fakeServer 记录收到的消息并按顺序返回历史
type fakeServer struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		msg := body["user_message"]
		if strings.TrimSpace(msg) == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":1000,"message":"user_message must not be empty"}`))
			return
		}
		f.mu.Lock()
		f.messages = append(f.messages, msg)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_message": msg,
			"bot_response": "echo: " + msg,
			"timestamp":    "2024-10-01T12:00:00Z",
		})
	})
	mux.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		type turn struct {
			ID          string `json:"id"`
			UserMessage string `json:"user_message"`
			BotResponse string `json:"bot_response"`
			Timestamp   string `json:"timestamp"`
		}
		turns := []turn{}
		for i := len(f.messages) - 1; i >= 0; i-- {
			turns = append(turns, turn{
				ID:          "id",
				UserMessage: f.messages[i],
				BotResponse: "echo: " + f.messages[i],
				Timestamp:   "2024-10-01T12:00:00Z",
			})
		}
		_ = json.NewEncoder(w).Encode(turns)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","database":"ok"}`))
	})
	return mux
}

func run(t *testing.T, srvURL, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir(), "--server", srvURL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSendCommand(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	out, err := run(t, srv.URL, "", "send", "what", "is", "gravity?")
	require.NoError(t, err)
	assert.Equal(t, "echo: what is gravity?\n", out)
	assert.Equal(t, []string{"what is gravity?"}, fake.messages)
}

func TestHistoryCommand(t *testing.T) {
	fake := &fakeServer{messages: []string{"first", "second"}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	out, err := run(t, srv.URL, "", "history", "--limit", "5")
	require.NoError(t, err)
	// 正序打印
	assert.Less(t, strings.Index(out, "you: first"), strings.Index(out, "you: second"))

	_, err = run(t, srv.URL, "", "history", "--limit", "0")
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	srv := httptest.NewServer((&fakeServer{}).handler())
	defer srv.Close()

	out, err := run(t, srv.URL, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "health:  ok")
	assert.Contains(t, out, srv.URL)
}

func TestInteractive(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	stdin := "hello\n\n/history 1\n/bogus\n/history x\nsecond question\n/quit\nnever sent\n"
	out, err := run(t, srv.URL, stdin)
	require.NoError(t, err)

	assert.Contains(t, out, "bot> echo: hello")
	assert.Contains(t, out, "you: hello")
	assert.Contains(t, out, "unknown command /bogus")
	assert.Contains(t, out, "usage: /history")
	assert.Contains(t, out, "bot> echo: second question")
	assert.Contains(t, out, "bye")
	assert.Equal(t, []string{"hello", "second question"}, fake.messages)
}

func TestInteractiveShowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":1501,"message":"provider error: upstream timeout"}`))
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "hi\n")
	require.NoError(t, err)
	assert.Contains(t, out, "error: server returned 502: provider error: upstream timeout")
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, s.ServerURL())
	assert.Equal(t, 10, s.HistoryLimit())
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	require.NoError(t, s.SaveServerURL("https://chat.example.com"))

	s, err = LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", s.ServerURL())

	assert.Error(t, s.OverrideServerURL("localhost:8000"))
	assert.Error(t, s.OverrideServerURL("ftp://example.com"))
}

func TestSettingsEnvOverride(t *testing.T) {
	t.Setenv("CHATCTL_SERVER_URL", "http://env.example:9000")

	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://env.example:9000", s.ServerURL())
}

func TestSaveServerURLSkipsEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHATCTL_HISTORY_LIMIT", "3")

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, s.HistoryLimit())
	require.NoError(t, s.SaveServerURL("http://10.0.0.3:8000"))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://10.0.0.3:8000")
	assert.NotContains(t, string(data), `"3"`)
	assert.Contains(t, string(data), "limit: 10")

	os.Unsetenv("CHATCTL_HISTORY_LIMIT")
	s, err = LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, s.HistoryLimit())
}

func TestConfigSetServer(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config-dir", dir, "config", "set-server", "http://10.0.0.2:8000"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://10.0.0.2:8000")
}
