package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/config"
	"github.com/hookline/beforesend/script"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	beforesend.Register(script.Default())
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, nil, nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not JSON: %v\n%s", err, w.Body.String())
	}
	return out
}

func TestTransformMissingInput(t *testing.T) {
	s := newTestServer(t)
	for name, body := range map[string]string{
		"no event":   `{"beforeSendCode": "def before_send(e, h):\n    return e"}`,
		"no code":    `{"event": {"a": 1}}`,
		"empty body": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/transform", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
			got := decodeBody(t, w)
			if string(got["error"]) != `"Missing event or beforeSendCode"` {
				t.Errorf("error = %s", got["error"])
			}
			if string(got["success"]) != "false" {
				t.Errorf("success = %s", got["success"])
			}
		})
	}
}

func TestTransformNullEventReachesRoutine(t *testing.T) {
	s := newTestServer(t)

	// An explicit null event is present, not missing; the routine sees
	// it as None.
	body := `{
		"event": null,
		"beforeSendCode": "def before_send(event, hint):\n    return {\"was_none\": event == None}"
	}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if string(got["success"]) != "true" {
		t.Errorf("success = %s", got["success"])
	}
	if string(got["transformedEvent"]) != `{"was_none":true}` {
		t.Errorf("transformedEvent = %s", got["transformedEvent"])
	}
}

func TestTransformSuccess(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"event": {"exception": {"values": [{"type": "ValueError", "value": "Original error"}]}},
		"beforeSendCode": "def before_send(event, hint):\n    event[\"exception\"][\"values\"][0][\"value\"] = \"Modified error\"\n    return event"
	}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if string(got["success"]) != "true" {
		t.Errorf("success = %s", got["success"])
	}
	ev := string(got["transformedEvent"])
	if !strings.Contains(ev, `"Modified error"`) {
		t.Errorf("transformedEvent = %s", ev)
	}
	if !strings.Contains(ev, `"ValueError"`) {
		t.Errorf("untouched field lost: %s", ev)
	}
}

func TestTransformPreservesKeyOrder(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"event": {"zeta": 1, "alpha": 2, "mid": 3},
		"beforeSendCode": "def before_send(event, hint):\n    return event"
	}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := string(decodeBody(t, w)["transformedEvent"])
	zi := strings.Index(got, "zeta")
	ai := strings.Index(got, "alpha")
	mi := strings.Index(got, "mid")
	if zi < 0 || ai < 0 || mi < 0 || !(zi < ai && ai < mi) {
		t.Errorf("key order not preserved: %s", got)
	}
}

func TestTransformDrop(t *testing.T) {
	s := newTestServer(t)
	body := `{"event": {"a": 1}, "beforeSendCode": "def before_send(event, hint):\n    return None"}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	if string(got["success"]) != "true" {
		t.Errorf("success = %s", got["success"])
	}
	if string(got["transformedEvent"]) != "null" {
		t.Errorf("transformedEvent = %s, want explicit null", got["transformedEvent"])
	}
}

func TestTransformLoadFailure(t *testing.T) {
	s := newTestServer(t)
	body := `{"event": {"a": 1}, "beforeSendCode": "invalid syntax {"}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	var msg string
	if err := json.Unmarshal(got["error"], &msg); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(msg, "Failed to parse beforeSend code: ") {
		t.Errorf("error = %q", msg)
	}
}

func TestTransformInvocationFailure(t *testing.T) {
	s := newTestServer(t)
	body := `{"event": {"a": 1}, "beforeSendCode": "def before_send(event, hint):\n    fail(\"boom\")"}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody(t, w)
	var msg string
	if err := json.Unmarshal(got["error"], &msg); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(msg, "Transformation error: ") || !strings.Contains(msg, "boom") {
		t.Errorf("error = %q", msg)
	}
	var trace string
	if err := json.Unmarshal(got["traceback"], &trace); err != nil {
		t.Fatal(err)
	}
	if trace == "" {
		t.Error("empty traceback")
	}
	if string(got["transformedEvent"]) != "null" {
		t.Errorf("transformedEvent = %s, want null", got["transformedEvent"])
	}
}

func TestTransformUnknownRuntime(t *testing.T) {
	s := newTestServer(t)
	body := `{"event": {"a": 1}, "beforeSendCode": "x = 1", "runtime": "cobol"}`
	w := do(t, s, http.MethodPost, "/transform", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unknown runtime") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)

	t.Run("valid", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/validate", `{"code": "def before_send(e, h):\n    return e"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		got := decodeBody(t, w)
		if string(got["valid"]) != "true" {
			t.Errorf("valid = %s", got["valid"])
		}
		if string(got["errors"]) != "[]" {
			t.Errorf("errors = %s", got["errors"])
		}
	})

	t.Run("invalid", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/validate", `{"code": "invalid syntax {"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		got := decodeBody(t, w)
		if string(got["valid"]) != "false" {
			t.Errorf("valid = %s", got["valid"])
		}
		var errs []beforesend.Diagnostic
		if err := json.Unmarshal(got["errors"], &errs); err != nil {
			t.Fatal(err)
		}
		if len(errs) != 1 || errs[0].Message == "" {
			t.Errorf("errors = %+v", errs)
		}
		if errs[0].Line == nil || *errs[0].Line != 1 {
			t.Errorf("line = %v", errs[0].Line)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/validate", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Missing code parameter") {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeBody(t, w)
	if string(got["status"]) != `"healthy"` {
		t.Errorf("status = %s", got["status"])
	}
	if !strings.Contains(string(got["engines"]), `"starlark"`) {
		t.Errorf("engines = %s", got["engines"])
	}
}

func TestSamples(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/samples", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unity-metadata") {
		t.Errorf("list = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/samples/unity-metadata", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "before_send") {
		t.Errorf("sample = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/samples/absent", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	s := newTestServer(t)

	// Drive one transform so the counters exist in the exposition.
	do(t, s, http.MethodPost, "/transform",
		`{"event": {"a": 1}, "beforeSendCode": "def before_send(event, hint):\n    return event"}`)

	w := do(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "playground_transform_total") {
		t.Error("transform counter not exposed")
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/transform", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid request body") {
		t.Errorf("body = %s", w.Body.String())
	}
}
