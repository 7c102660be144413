package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mverhage/bothive/internal/core/service"
	"github.com/mverhage/bothive/internal/storage"
	"github.com/mverhage/bothive/pkg/config"
)

// testEnv holds all test dependencies
type testEnv struct {
	router     *gin.Engine
	supervisor *service.Supervisor
	store      *storage.Store
}

// setupTestEnv creates a test environment backed by a temp storage dir.
// Bots run through /bin/sh so tests need no python3/node install.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.New(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cfg := &config.Config{
		StorageDir:         dir,
		MaxBotsPerUser:     3,
		StopTimeoutSeconds: 5,
		KillOnShutdown:     true,
		Runtimes: map[string][]string{
			"py": {"/bin/sh"},
			"js": {"/bin/sh"},
		},
	}

	supervisor := service.NewSupervisor(cfg, store)
	t.Cleanup(func() {
		supervisor.Shutdown(context.Background())
	})

	botHandler := NewBotHandler(supervisor)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/bots/:username", botHandler.ListBots)
	router.POST("/api/bot/upload", botHandler.Upload)
	router.POST("/api/bot/start/:bot_id", botHandler.Start)
	router.POST("/api/bot/stop/:bot_id", botHandler.Stop)
	router.DELETE("/api/bot/delete/:bot_id", botHandler.Delete)
	router.GET("/api/bot/logs/:bot_id", botHandler.Logs)
	router.GET("/api/bot/status/:bot_id", botHandler.Status)

	return &testEnv{
		router:     router,
		supervisor: supervisor,
		store:      store,
	}
}

// makeRequest performs a request and returns the response
func (env *testEnv) makeRequest(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// uploadBot posts a multipart upload. Empty field values are omitted so
// missing-field cases can be exercised.
func (env *testEnv) uploadBot(t *testing.T, username, botName, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		fw, err := mw.CreateFormFile("bot_file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		io.WriteString(fw, content)
	}
	if username != "" {
		mw.WriteField("username", username)
	}
	if botName != "" {
		mw.WriteField("bot_name", botName)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, "/api/bot/upload", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// mustUpload uploads a bot and returns its id, failing the test on error
func (env *testEnv) mustUpload(t *testing.T, username, botName, filename, content string) string {
	t.Helper()

	w := env.uploadBot(t, username, botName, filename, content)
	if w.Code != http.StatusOK {
		t.Fatalf("upload failed with status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		BotID   string `json:"bot_id"`
	}
	parseJSON(t, w, &resp)
	if !resp.Success || resp.BotID == "" {
		t.Fatalf("unexpected upload response: %s", w.Body.String())
	}
	return resp.BotID
}

func parseJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to parse response: %v\nBody: %s", err, w.Body.String())
	}
}
