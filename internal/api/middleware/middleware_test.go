package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLimiter struct {
	calls int
	limit int
	err   error
	keys  []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.calls++
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	return f.calls <= limit, nil
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func do(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	fl := &fakeLimiter{}
	r := gin.New()
	r.POST("/runs", RateLimit(fl, 2, time.Minute), ok)

	for i := 0; i < 2; i++ {
		if w := do(r, "POST", "/runs"); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行，实际: %d", i+1, w.Code)
		}
	}
	if w := do(r, "POST", "/runs"); w.Code != http.StatusTooManyRequests {
		t.Errorf("期望 429，实际: %d", w.Code)
	}
	if !strings.HasSuffix(fl.keys[0], ":/runs") {
		t.Errorf("限流键应包含路由模板，实际: %s", fl.keys[0])
	}
}

func TestRateLimit_DegradesOnError(t *testing.T) {
	r := gin.New()
	r.POST("/runs", RateLimit(&fakeLimiter{err: errors.New("redis down")}, 1, time.Minute), ok)

	if w := do(r, "POST", "/runs"); w.Code != http.StatusOK {
		t.Errorf("限流器出错时应放行，实际: %d", w.Code)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/runs", RateLimit(nil, 1, time.Minute), ok)

	for i := 0; i < 3; i++ {
		if w := do(r, "POST", "/runs"); w.Code != http.StatusOK {
			t.Errorf("未配置限流器时应放行，实际: %d", w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", ok)

	w := do(r, "GET", "/x")
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("应生成 UUID，实际: %q", w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "upstream-1" {
		t.Errorf("应沿用上游 ID，实际: %q", got)
	}
}

func TestLogger_IncludesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/x", ok)

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("请求完成").All()
	if len(entries) != 1 {
		t.Fatalf("期望 1 条请求日志，实际: %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "rid-42" {
		t.Errorf("日志应包含 request_id，实际: %v", got)
	}
}

func TestBodyLimit_TooLarge(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`{"start_date":"2025-03-03"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际: %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", ok)

	w := do(r, "GET", "/x")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("应设置 X-Content-Type-Options")
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://planner.local/"}))
	r.POST("/x", ok)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://planner.local")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("期望 204，实际: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://planner.local" {
		t.Error("应回显允许的 Origin")
	}
}
