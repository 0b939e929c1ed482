package oh

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tacit/wm/internal/state"
)

func TestTruncateForError(t *testing.T) {
	short := "short content"
	if got := truncateForError(short); got != short {
		t.Errorf("short content changed: %q", got)
	}

	long := strings.Repeat("a", 100)
	got := truncateForError(long)
	if n := utf8.RuneCountInString(got); n != 53 {
		t.Errorf("rune count = %d, want 53", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}

	emoji := strings.Repeat("\U0001F600", 60)
	got = truncateForError(emoji)
	if n := utf8.RuneCountInString(got); n != 53 {
		t.Errorf("emoji rune count = %d, want 53", n)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncation broke character boundary: %q", got)
	}
}

func TestPushCandidatesRequiresKey(t *testing.T) {
	t.Setenv("OH_API_KEY", "")
	_, err := PushCandidates(context.Background(), "ctx-1", []string{"g"}, nil)
	if err == nil {
		t.Fatal("expected error without OH_API_KEY")
	}
}

func TestPushCandidates(t *testing.T) {
	t.Setenv("CLAUDE_PROJECT_DIR", t.TempDir())
	if err := state.Init(); err != nil {
		t.Fatal(err)
	}

	var received []createCandidateRequest
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/candidates" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		auths = append(auths, r.Header.Get("Authorization"))
		var req createCandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		received = append(received, req)
		if req.Content == "bad item" {
			http.Error(w, `{"error":"rejected"}`, http.StatusUnprocessableEntity)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"candidate_id": "cand-" + req.Type})
	}))
	defer srv.Close()

	t.Setenv("OH_API_KEY", "test-key")
	t.Setenv("OH_API_URL", srv.URL)

	result, err := PushCandidates(context.Background(), "ctx-1",
		[]string{"never skip review", "bad item"}, []string{"read the logs first"})
	if err != nil {
		t.Fatalf("PushCandidates: %v", err)
	}

	if result.GuardrailsPushed != 1 {
		t.Errorf("GuardrailsPushed = %d, want 1", result.GuardrailsPushed)
	}
	if result.MetisPushed != 1 {
		t.Errorf("MetisPushed = %d, want 1", result.MetisPushed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Content != "bad item" {
		t.Errorf("error content = %q", result.Errors[0].Content)
	}
	if !strings.Contains(result.Errors[0].Message, "422") {
		t.Errorf("error message = %q, want HTTP status", result.Errors[0].Message)
	}

	if len(received) != 3 {
		t.Fatalf("requests = %d, want 3", len(received))
	}
	if received[0].Type != "guardrail" || received[2].Type != "metis" {
		t.Errorf("types = %q, %q", received[0].Type, received[2].Type)
	}
	for _, req := range received {
		if req.ContextID != "ctx-1" {
			t.Errorf("context_id = %q", req.ContextID)
		}
		if req.SourceType != "wm_distill" {
			t.Errorf("source_type = %q", req.SourceType)
		}
	}
	for _, auth := range auths {
		if auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
	}
}

func TestPushSingleCandidateMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	_, err := pushSingleCandidate(context.Background(), srv.URL, "k", "ctx", "guardrail", "x")
	if err == nil || !strings.Contains(err.Error(), "candidate_id") {
		t.Errorf("err = %v, want missing candidate_id", err)
	}
}

func TestAPICredentialsEnvWins(t *testing.T) {
	t.Setenv("OH_API_URL", "https://example.test")
	t.Setenv("OH_API_KEY", "env-key")

	url, key, err := apiCredentials()
	if err != nil {
		t.Fatalf("apiCredentials: %v", err)
	}
	if url != "https://example.test" || key != "env-key" {
		t.Errorf("got %q, %q", url, key)
	}
}
