// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/settlesmart/internal/cloud"
	"github.com/jeranaias/settlesmart/internal/pipeline"
	"github.com/jeranaias/settlesmart/internal/plan"
	"github.com/jeranaias/settlesmart/internal/profile"
	"github.com/jeranaias/settlesmart/internal/prompt"
)

// fakeGenerator returns a canned result or error and records the last raw
// profile it saw.
type fakeGenerator struct {
	result pipeline.Result
	err    error
	last   profile.Raw
	panics bool
}

func (f *fakeGenerator) Generate(ctx context.Context, raw profile.Raw) (pipeline.Result, error) {
	if f.panics {
		panic("boom")
	}
	f.last = raw
	return f.result, f.err
}

const samplePlan = `{"weeks":[
	{"title":"Week 1","items":[{"label":"Buy SIM","daysOffset":0,"category":"phone"},{"label":"Open bank account","daysOffset":2}]},
	{"title":"Week 2","items":[{"label":"Register address","daysOffset":8}]}
],"countryNotes":"Carry your passport."}`

func newTestServer(t *testing.T, gen Generator, mutate ...func(*Options)) *Server {
	t.Helper()
	opts := Options{CompletionConfigured: true, Version: "test"}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := New(gen, opts)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Error
}

// =============================================================================
// PLAN ENDPOINT TESTS
// =============================================================================

func TestHandlePlan_ReturnsPlan(t *testing.T) {
	gen := &fakeGenerator{result: pipeline.Result{Plan: plan.Normalize(samplePlan)}}
	s := newTestServer(t, gen)

	rec := do(t, s, http.MethodPost, "/api/plan",
		`{"phase":"after","origin":"Brazil","destination":"Germany","visaType":"work","anchorDate":"2025-01-15"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("X-Plan-Degraded"))
	assert.Equal(t, "Germany", gen.last.Destination)

	var got plan.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TaskCount())
	assert.Equal(t, "Carry your passport.", got.CountryNotes)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wire))
	first := wire["weeks"].([]any)[0].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "w1-t1", first["id"])
}

func TestHandlePlan_DegradedPlanIsStillOK(t *testing.T) {
	gen := &fakeGenerator{result: pipeline.Result{Plan: plan.Degraded()}}
	s := newTestServer(t, gen)

	rec := do(t, s, http.MethodPost, "/api/plan", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Plan-Degraded"))
	assert.JSONEq(t, `{"weeks":[],"countryNotes":"`+plan.DegradedNote+`"}`, rec.Body.String())
}

func TestHandlePlan_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"configuration", &pipeline.Error{Class: pipeline.ErrConfiguration, Err: cloud.ErrMissingCredentials}, http.StatusInternalServerError, msgMissingKey},
		{"upstream", &pipeline.Error{Class: pipeline.ErrUpstream, Err: &cloud.UpstreamError{Status: 503, Body: "sk-secret"}}, http.StatusBadGateway, msgUpstream},
		{"transport", &pipeline.Error{Class: pipeline.ErrTransport, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, msgUnreachable},
		{"unclassified", errors.New("odd"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeGenerator{err: tt.err})

			rec := do(t, s, http.MethodPost, "/api/plan", `{"origin":"India"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, decodeError(t, rec))
			assert.NotContains(t, rec.Body.String(), "sk-secret")
		})
	}
}

func TestHandlePlan_BadBodies(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodPost, "/api/plan", `{"origin":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidBody, decodeError(t, rec))

	rec = do(t, s, http.MethodPost, "/api/plan", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := `{"origin":"` + strings.Repeat("a", MaxRequestBodySize) + `"}`
	rec = do(t, s, http.MethodPost, "/api/plan", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, msgBodyTooLarge, decodeError(t, rec))
}

func TestHandlePlan_WrongMethod(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodGet, "/api/plan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlePlan_RecoversFromPanic(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{panics: true})

	rec := do(t, s, http.MethodPost, "/api/plan", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decodeError(t, rec))
}

// =============================================================================
// PROGRESS, EXPORT AND SCHEMA TESTS
// =============================================================================

func TestHandleProgress(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	body := `{"plan":` + samplePlan + `,"completed":["w1-t1","w9-t9"]}`
	rec := do(t, s, http.MethodPost, "/api/progress", body)

	require.Equal(t, http.StatusOK, rec.Code)

	var got ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Done)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 33, got.Percent)
	require.Len(t, got.Weeks, 2)
	assert.Equal(t, 50, got.Weeks[0].Percent)
	assert.Equal(t, 0, got.Weeks[1].Percent)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wire))
	assert.Contains(t, wire, "doneCount")
	assert.Contains(t, wire, "totalCount")
	assert.Contains(t, wire, "percent")
}

func TestHandleProgress_EmptyPlan(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodPost, "/api/progress", `{"plan":{"weeks":[]},"completed":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Zero(t, got.Total)
	assert.Zero(t, got.Percent)
}

func TestHandleProgress_PlanWithoutWeeksRejected(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodPost, "/api/progress", `{"plan":{"notes":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExport(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})
	s.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	body := `{"plan":` + samplePlan + `,"profile":{"phase":"before","origin":"Brazil","destination":"Germany","visaType":"work","anchorDate":"2025-04-01"},"completed":["w1-t1"]}`

	rec := do(t, s, http.MethodPost, "/api/export?format=txt", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="SettleSmart-Plan.txt"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "SettleSmart Plan — BEFORE — Brazil → Germany (work)\nAnchor date: 2025-04-01\n"))
	assert.Contains(t, rec.Body.String(), "- Open bank account (offset ~ 2 days)")

	rec = do(t, s, http.MethodPost, "/api/export", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, rec.Body.String(), "- [x] Buy SIM")
	assert.Contains(t, rec.Body.String(), "generated: 2025-03-01T09:00:00Z")
}

func TestHandleExport_Compact(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	body := `{"plan":` + samplePlan + `,"profile":{"origin":"Brazil","destination":"Germany"},"compact":true}`
	rec := do(t, s, http.MethodPost, "/api/export?format=txt", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "• Buy SIM")
	assert.NotContains(t, rec.Body.String(), "Anchor date")
}

func TestHandleExport_UnknownFormat(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodPost, "/api/export?format=pdf", `{"plan":{"weeks":[]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgUnknownFormat, decodeError(t, rec))
}

func TestHandleSchema(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got prompt.SchemaDescription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, prompt.SchemaName, got.Name)
	assert.Contains(t, got.Schema, "properties")
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})
	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","completion":"configured"}`, rec.Body.String())

	s = newTestServer(t, &fakeGenerator{}, func(o *Options) { o.CompletionConfigured = false })
	rec = do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","version":"test","completion":"not_configured"}`, rec.Body.String())
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})
	rec := do(t, s, http.MethodGet, "/health", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	rec := do(t, s, http.MethodGet, "/health", "")
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, supplied)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, supplied, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not\na-uuid")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not\na-uuid", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, func(o *Options) {
		o.AllowedOrigins = []string{"https://app.example.com", "*.settle.test"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/plan", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), PlanDegradedHeader)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ui.settle.test")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://ui.settle.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 2
	})

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/health", "").Code)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_DropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("203.0.113.1"))
	assert.False(t, rl.Allow("203.0.113.1"))
	assert.Equal(t, 1, rl.Len())

	now = now.Add(2 * rl.idleTTL)
	assert.True(t, rl.Allow("203.0.113.2"))
	assert.Equal(t, 1, rl.Len())
}

func TestClientIP(t *testing.T) {
	ips, err := NewClientIPResolver(nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", ips.ClientIP(req), "untrusted peer must not set forwarded headers")

	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", ips.ClientIP(req), "private ranges are not trusted by default")

	req.RemoteAddr = "127.0.0.1:5555"
	assert.Equal(t, "1.2.3.4", ips.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "6.6.6.6, 1.2.3.4")
	assert.Equal(t, "1.2.3.4", ips.ClientIP(req), "entries left of the client are ignored")

	req.Header.Set("X-Forwarded-For", "garbage, 5.6.7.8")
	req.Header.Set("X-Real-IP", "9.9.9.9")
	assert.Equal(t, "5.6.7.8", ips.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "5.6.7.8, garbage")
	assert.Equal(t, "127.0.0.1", ips.ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "9.9.9.9", ips.ClientIP(req))

	_, err = NewClientIPResolver([]string{"not-a-cidr/99"})
	assert.Error(t, err)
}

func TestClientIP_SkipsTrustedHops(t *testing.T) {
	ips, err := NewClientIPResolver([]string{"203.0.113.9", "10.0.0.0/8"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "6.6.6.6, 198.51.100.7, 10.0.0.2")
	assert.Equal(t, "198.51.100.7", ips.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.2")
	assert.Equal(t, "10.0.0.3", ips.ClientIP(req), "all hops trusted")

	req.Header.Set("X-Forwarded-For", "6.6.6.6")
	req.Header.Add("X-Forwarded-For", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ips.ClientIP(req), "repeated headers form one chain")
}

func TestRateLimit_RotatingForwardedFor(t *testing.T) {
	limited := func(t *testing.T, trusted []string, xff func(i int) string) int {
		t.Helper()
		s := newTestServer(t, &fakeGenerator{}, func(o *Options) {
			o.RateLimit = 0.001
			o.RateBurst = 2
			o.TrustedProxies = trusted
		})
		rejected := 0
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "172.17.0.5:4000"
			req.Header.Set("X-Forwarded-For", xff(i))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code == http.StatusTooManyRequests {
				rejected++
			}
		}
		return rejected
	}

	t.Run("peer not trusted by default", func(t *testing.T) {
		got := limited(t, nil, func(i int) string { return fmt.Sprintf("203.0.113.%d", i) })
		assert.Equal(t, 18, got)
	})

	t.Run("client behind trusted proxy", func(t *testing.T) {
		got := limited(t, []string{"172.16.0.0/12"}, func(i int) string {
			return fmt.Sprintf("203.0.113.%d, 198.51.100.7", i)
		})
		assert.Equal(t, 18, got)
	})
}

// =============================================================================
// LIFECYCLE AND END-TO-END TESTS
// =============================================================================

func TestServeAndShutdown(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestShutdownBeforeServe(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})
	require.NoError(t, s.Shutdown(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, s.Serve(ln))

	_, err = net.Dial("tcp", ln.Addr().String())
	assert.Error(t, err, "listener must be closed")
}

func TestPlanEndToEnd(t *testing.T) {
	content, err := json.Marshal(samplePlan)
	require.NoError(t, err)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + string(content) + `}}]}`))
	}))
	defer upstream.Close()

	client := cloud.NewClient(cloud.Options{APIKey: "sk-test", BaseURL: upstream.URL})
	s := newTestServer(t, pipeline.New(client))

	rec := do(t, s, http.MethodPost, "/api/plan", `{"phase":"before","origin":"Nigeria","destination":"Canada","visaType":"student"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got plan.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3, got.TaskCount())
}

func TestPlanEndToEnd_MissingKey(t *testing.T) {
	s := newTestServer(t, pipeline.New(cloud.NewClient(cloud.Options{})), func(o *Options) {
		o.CompletionConfigured = false
	})

	rec := do(t, s, http.MethodPost, "/api/plan", `{"origin":"Nigeria"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgMissingKey, decodeError(t, rec))
}
