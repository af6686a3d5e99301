package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/restaurant-etl/internal/config"
	"github.com/JonMunkholm/restaurant-etl/internal/core"
	"github.com/JonMunkholm/restaurant-etl/internal/database"
)

type fakeImporter struct {
	mu       sync.Mutex
	calls    []string
	lastReq  core.Request
	lastBody string
	result   *core.Result
	err      error
}

func (f *fakeImporter) run(kind string, req core.Request) (*core.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	f.lastReq = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		f.lastBody = string(data)
	}
	return f.result, f.err
}

func (f *fakeImporter) Import(ctx context.Context, req core.Request) (*core.Result, error) {
	return f.run("import", req)
}

func (f *fakeImporter) Inspect(ctx context.Context, req core.Request) (*core.Result, error) {
	return f.run("inspect", req)
}

func (f *fakeImporter) LimiterStatus() core.ImportLimiterStatus {
	return core.ImportLimiterStatus{Active: 0, Available: 1, MaxConcurrent: 1}
}

type fakeCatalog struct {
	restaurants map[int64]core.Restaurant
	runs        []core.ImportRun
	lastFilter  database.ListRestaurantsParams
	deleted     []int64
	err         error
	pingErr     error
}

func (f *fakeCatalog) ListRestaurants(ctx context.Context, filter database.ListRestaurantsParams) ([]core.Restaurant, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Restaurant
	for _, r := range f.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeCatalog) GetRestaurant(ctx context.Context, id int64) (core.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return core.Restaurant{}, core.ErrNotFound
	}
	return r, nil
}

func (f *fakeCatalog) DeleteRestaurant(ctx context.Context, id int64) error {
	if _, ok := f.restaurants[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.restaurants, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCatalog) ListImportRuns(ctx context.Context, limit int32) ([]core.ImportRun, error) {
	if f.err != nil {
		return nil, f.err
	}
	if int(limit) < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeCatalog) Ping(ctx context.Context) error { return f.pingErr }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 1,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
			CommitMode:    "row",
			BoolFallback:  "true",
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func newTestServer(t *testing.T, imp *fakeImporter, cat *fakeCatalog, cfg *config.Config) *Server {
	t.Helper()
	if imp == nil {
		imp = &fakeImporter{}
	}
	if cat == nil {
		cat = &fakeCatalog{restaurants: map[int64]core.Restaurant{}}
	}
	if cfg == nil {
		cfg = testConfig()
	}
	s := NewServer(imp, cat, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

// uploadRequest builds a multipart POST. An empty fileName omits the file part.
func uploadRequest(t *testing.T, path, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(part, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}
