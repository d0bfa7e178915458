package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	DTO_http "quiz_chain_solver/internal/DTO/http"
	"quiz_chain_solver/internal/service/solver"
)

// fakeSolver фиксирует запуски цепочек; может «зависнуть», чтобы проверить,
// что хендлер не ждёт завершения.
type fakeSolver struct {
	started chan string
	creds   chan solver.Credentials
	block   time.Duration
}

func newFakeSolver() *fakeSolver {
	return &fakeSolver{
		started: make(chan string, 8),
		creds:   make(chan solver.Credentials, 8),
	}
}

func (f *fakeSolver) Run(_ context.Context, startURL string, creds solver.Credentials) {
	if f.block > 0 {
		time.Sleep(f.block)
	}
	f.started <- startURL
	f.creds <- creds
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/receive_request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestReceiveRequestAccepted(t *testing.T) {
	fs := newFakeSolver()
	h := NewReceiveRequestHandler("s3cret", fs)

	rr := postJSON(t, h, `{"email":"user@example.com","secret":"s3cret","url":"https://quiz.example/q1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp DTO_http.AcceptedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Message != "Request accepted" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	select {
	case u := <-fs.started:
		if u != "https://quiz.example/q1" {
			t.Fatalf("chain started with wrong url: %q", u)
		}
	case <-time.After(time.Second):
		t.Fatal("chain was never started")
	}
	select {
	case c := <-fs.creds:
		if c.Email != "user@example.com" || c.Secret != "s3cret" {
			t.Fatalf("chain got wrong credentials: %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatal("credentials never delivered")
	}
}

func TestReceiveRequestRespondsBeforeChainFinishes(t *testing.T) {
	fs := newFakeSolver()
	fs.block = 2 * time.Second
	h := NewReceiveRequestHandler("s3cret", fs)

	start := time.Now()
	rr := postJSON(t, h, `{"email":"user@example.com","secret":"s3cret","url":"https://quiz.example/q1"}`)
	elapsed := time.Since(start)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("handler waited for the chain: %s", elapsed)
	}
}

func TestReceiveRequestWrongSecret(t *testing.T) {
	fs := newFakeSolver()
	h := NewReceiveRequestHandler("s3cret", fs)

	rr := postJSON(t, h, `{"email":"user@example.com","secret":"wrong","url":"https://quiz.example/q1"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}

	select {
	case u := <-fs.started:
		t.Fatalf("chain must not start on bad secret, but started with %q", u)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReceiveRequestMissingSecret(t *testing.T) {
	h := NewReceiveRequestHandler("s3cret", newFakeSolver())
	rr := postJSON(t, h, `{"email":"user@example.com","url":"https://quiz.example/q1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReceiveRequestMissingFields(t *testing.T) {
	h := NewReceiveRequestHandler("s3cret", newFakeSolver())
	rr := postJSON(t, h, `{"secret":"s3cret"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReceiveRequestInvalidJSON(t *testing.T) {
	h := NewReceiveRequestHandler("s3cret", newFakeSolver())
	rr := postJSON(t, h, `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReceiveRequestWrongContentType(t *testing.T) {
	h := NewReceiveRequestHandler("s3cret", newFakeSolver())
	req := httptest.NewRequest(http.MethodPost, "/receive_request", strings.NewReader("email=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rr.Code)
	}
}
