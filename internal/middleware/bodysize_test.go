package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodySizeLimiter_AllowsSmallBody(t *testing.T) {
	handler := BodySizeLimiter(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body failed: %v", err)
		}
		w.Write(body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader("small payload"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "small payload" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestBodySizeLimiter_RejectsLargeContentLength(t *testing.T) {
	handler := BodySizeLimiter(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for an oversized body")
	}))

	req := httptest.NewRequest(http.MethodPost, "/contact", bytes.NewReader(make([]byte, 100)))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

func TestBodySizeLimiter_ChunkedBodyEnforced(t *testing.T) {
	handler := BodySizeLimiter(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err == nil {
			t.Error("reading past the limit should fail")
		}
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))

	// No declared length: the MaxBytesReader enforces the cap mid-read.
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

func TestBodySizeLimiter_NoBody(t *testing.T) {
	handler := BodySizeLimiter(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/pricing/state", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestBodySizeLimiterVariants(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		size   int
		wantOK bool
	}{
		{"json under limit", BodySizeLimiterJSON(), 1024, true},
		{"json over limit", BodySizeLimiterJSON(), MaxJSONBodySize + 1, false},
		{"form under limit", BodySizeLimiterForm(), 1024, true},
		{"form over limit", BodySizeLimiterForm(), MaxFormBodySize + 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/contact", bytes.NewReader(make([]byte, tt.size)))
			rr := httptest.NewRecorder()
			tt.mw(ok).ServeHTTP(rr, req)

			if tt.wantOK && rr.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rr.Code)
			}
			if !tt.wantOK && rr.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("status = %d, want 413", rr.Code)
			}
		})
	}
}
