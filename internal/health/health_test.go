package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func passing(_ context.Context) error { return nil }

func failing(msg string) func(context.Context) error {
	return func(_ context.Context) error { return errors.New(msg) }
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) report {
	t.Helper()
	var rep report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode probe body: %v", err)
	}
	return rep
}

func TestHealthzAlwaysOK(t *testing.T) {
	t.Parallel()

	// Even with a failing checker registered, liveness stays green.
	h := New(Checker{Name: "stt", Check: failing("backend unreachable")})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rep := decodeReport(t, rec); rep.Status != "ok" {
		t.Errorf("status field = %q, want ok", rep.Status)
	}
}

func TestReadyzAllChecksPass(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "store", Check: passing},
		Checker{Name: "stt", Check: passing},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	rep := decodeReport(t, rec)
	if rep.Status != "ok" {
		t.Errorf("status field = %q, want ok", rep.Status)
	}
	for _, name := range []string{"store", "stt"} {
		if rep.Checks[name] != "ok" {
			t.Errorf("check %q = %q, want ok", name, rep.Checks[name])
		}
	}
}

func TestReadyzOneCheckFails(t *testing.T) {
	t.Parallel()

	h := New(
		Checker{Name: "store", Check: passing},
		Checker{Name: "stt", Check: failing("whisper: connection refused")},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	rep := decodeReport(t, rec)
	if rep.Status != "fail" {
		t.Errorf("status field = %q, want fail", rep.Status)
	}
	if rep.Checks["store"] != "ok" {
		t.Errorf("store check = %q, want ok", rep.Checks["store"])
	}
	if rep.Checks["stt"] != "fail: whisper: connection refused" {
		t.Errorf("stt check = %q, want the failure text", rep.Checks["stt"])
	}
}

func TestReadyzNoCheckers(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	New().Readyz(rec, httptest.NewRequest("GET", "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyzPropagatesCancellation(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "stt", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest("GET", "/readyz", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRegisterMountsProbes(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	New(Checker{Name: "store", Check: passing}).Register(mux)

	for _, path := range []string{"/healthz", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
		})
	}
}
