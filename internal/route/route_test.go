package route

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	appcontext "github.com/SeakMengs/QRCatalog/internal/app_context"
	"github.com/SeakMengs/QRCatalog/internal/config"
	"github.com/SeakMengs/QRCatalog/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, maxUploadMB int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.GetConfig()
	cfg.ENV = "test"
	cfg.Paths.FontMetadata = filepath.Join(t.TempDir(), "font_metadata.json")
	cfg.Server.MaxUploadMB = maxUploadMB

	return NewEngine(&appcontext.Application{
		Config: &cfg,
		Logger: zap.NewNop().Sugar(),
	})
}

func TestIndex(t *testing.T) {
	engine := newTestEngine(t, 1)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	if !body.Success || body.Data["name"] != util.GetAppName() || body.Data["version"] != util.Version {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestCatalogRoute(t *testing.T) {
	engine := newTestEngine(t, 1)

	upload := func(size int) *http.Request {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, _ := w.CreateFormFile("file", "productos.csv")
		part.Write(bytes.Repeat([]byte("a"), size))
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalogs", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req
	}

	tests := []struct {
		name     string
		request  *http.Request
		expected int
		message  string
	}{
		{name: "Mounted", request: upload(10), expected: http.StatusBadRequest, message: "Invalid spreadsheet"},
		{name: "Too large", request: upload(2 << 20), expected: http.StatusBadRequest, message: "No spreadsheet was sent"},
		{name: "Wrong method", request: httptest.NewRequest(http.MethodGet, "/api/v1/catalogs", nil), expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, tt.request)

			if w.Code != tt.expected {
				t.Fatalf("expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
			if tt.message == "" {
				return
			}

			var body util.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json %q: %v", w.Body.String(), err)
			}
			if body.Message != tt.message {
				t.Errorf("expected %q, got %q", tt.message, body.Message)
			}
		})
	}
}
