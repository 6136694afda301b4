package sleepytest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func do(t *testing.T, g *Gateway, method, target, form string) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if form != "" {
		body = strings.NewReader(form)
	}
	req := httptest.NewRequest(method, target, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("reply is not JSON: %s", rec.Body.String())
	}
	return rec.Code, out
}

func q(v any) string {
	data, _ := json.Marshal(v)
	return url.QueryEscape(string(data))
}

func TestHello(t *testing.T) {
	g := New()
	code, out := do(t, g, http.MethodGet, "/_hello", "")
	if code != http.StatusOK || out["ok"] != 1.0 || out["msg"] != HelloMessage {
		t.Errorf("unexpected hello reply %d %v", code, out)
	}
}

func TestConnectRecordsServerAndName(t *testing.T) {
	g := New()
	code, out := do(t, g, http.MethodPost, "/_connect", "server=localhost:27017&name=main")
	if code != http.StatusOK || out["ok"] != 1.0 {
		t.Fatalf("unexpected reply %d %v", code, out)
	}
	want := []Connection{{Server: "localhost:27017", Name: "main"}}
	if diff := cmp.Diff(want, g.Connections()); diff != "" {
		t.Errorf("connections mismatch (-want +got):\n%s", diff)
	}

	code, out = do(t, g, http.MethodPost, "/_connect", "name=x")
	if code != http.StatusBadRequest || out["ok"] != 0.0 {
		t.Errorf("expected 400 ok 0 without server, got %d %v", code, out)
	}
}

func TestInsertFindProjection(t *testing.T) {
	g := New()
	docs := []map[string]any{{"a": 1, "b": "x"}, {"a": 2, "b": "y"}, {"a": 1, "b": "z"}}
	if code, _ := do(t, g, http.MethodPost, "/db/coll/_insert", "docs="+q(docs)); code != http.StatusOK {
		t.Fatalf("insert failed with %d", code)
	}

	_, out := do(t, g, http.MethodGet, "/db/coll/_find?criteria="+q(map[string]any{"a": 1})+"&fields="+q(map[string]any{"b": 1}), "")
	results := out["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %v", results)
	}
	first := results[0].(map[string]any)
	if first["b"] != "x" || first["_id"] == nil || first["a"] != nil {
		t.Errorf("projection not applied: %v", first)
	}
	if out["id"] != 0.0 {
		t.Errorf("expected exhausted cursor id 0, got %v", out["id"])
	}
}

func TestFindSkipLimitAndCursor(t *testing.T) {
	g := New()
	for i := 0; i < 20; i++ {
		g.Seed("db", "nums", map[string]any{"i": float64(i)})
	}

	_, out := do(t, g, http.MethodGet, "/db/nums/_find?skip=2&limit=5", "")
	results := out["results"].([]any)
	if len(results) != 5 || results[0].(map[string]any)["i"] != 2.0 {
		t.Errorf("skip/limit not applied: %v", results)
	}

	_, out = do(t, g, http.MethodGet, "/db/nums/_find", "")
	if got := len(out["results"].([]any)); got != defaultBatchSize {
		t.Fatalf("expected default batch of %d, got %d", defaultBatchSize, got)
	}
	id := int64(out["id"].(float64))
	if id == 0 {
		t.Fatal("expected a cursor id for remaining documents")
	}

	_, out = do(t, g, http.MethodGet, "/db/nums/_more?id="+itoa(id)+"&batch_size=3", "")
	if got := len(out["results"].([]any)); got != 3 {
		t.Errorf("expected batch of 3, got %d", got)
	}
	next := int64(out["id"].(float64))

	_, out = do(t, g, http.MethodGet, "/db/nums/_more?id="+itoa(next), "")
	if got := len(out["results"].([]any)); got != 2 || out["id"] != 0.0 {
		t.Errorf("expected final batch of 2 with id 0, got %d %v", got, out["id"])
	}

	_, out = do(t, g, http.MethodGet, "/db/nums/_more?id="+itoa(next), "")
	if out["ok"] != 0.0 {
		t.Errorf("expected ok 0 for a consumed cursor, got %v", out)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	g := New()
	g.Seed("db", "coll", map[string]any{"_id": "1", "a": 1.0, "b": 1.0}, map[string]any{"_id": "2", "a": 2.0})

	form := "criteria=" + q(map[string]any{"_id": "1"}) + "&newobj=" + q(map[string]any{"$set": map[string]any{"b": 5}})
	if _, out := do(t, g, http.MethodPost, "/db/coll/_update", form); out["ok"] != 1.0 {
		t.Fatalf("update failed: %v", out)
	}
	if got := g.Documents("db", "coll")[0]["b"]; got != 5.0 {
		t.Errorf("$set not applied, b=%v", got)
	}

	form = "criteria=" + q(map[string]any{"_id": "2"}) + "&newobj=" + q(map[string]any{"c": 3})
	do(t, g, http.MethodPost, "/db/coll/_update", form)
	want := map[string]any{"_id": "2", "c": 3.0}
	if diff := cmp.Diff(want, g.Documents("db", "coll")[1]); diff != "" {
		t.Errorf("replacement mismatch (-want +got):\n%s", diff)
	}

	if code, _ := do(t, g, http.MethodPost, "/db/coll/_update", "criteria={}"); code != http.StatusBadRequest {
		t.Errorf("expected 400 without newobj, got %d", code)
	}

	do(t, g, http.MethodPost, "/db/coll/_remove", "criteria="+q(map[string]any{"_id": "1"}))
	if got := len(g.Documents("db", "coll")); got != 1 {
		t.Errorf("expected 1 document after remove, got %d", got)
	}
	do(t, g, http.MethodPost, "/db/coll/_remove", "")
	if got := len(g.Documents("db", "coll")); got != 0 {
		t.Errorf("expected empty collection after remove without criteria, got %d", got)
	}
}

func TestCommands(t *testing.T) {
	g := New()
	g.Seed("db", "a", map[string]any{"x": 1.0}, map[string]any{"x": 2.0})
	g.Seed("db", "b", map[string]any{"x": 1.0})

	tests := []struct {
		name   string
		target string
		obj    string
		check  func(t *testing.T, out map[string]any)
	}{
		{"ping", "/_cmd", `{"ping":1}`, func(t *testing.T, out map[string]any) {
			if out["ok"] != 1.0 {
				t.Errorf("ping failed: %v", out)
			}
		}},
		{"count", "/db/_cmd", `{"count":"a","query":{"x":1}}`, func(t *testing.T, out map[string]any) {
			if out["n"] != 1.0 {
				t.Errorf("expected n=1, got %v", out)
			}
		}},
		{"listCollections", "/db/_cmd", `{"listCollections":1}`, func(t *testing.T, out map[string]any) {
			if diff := cmp.Diff([]any{"a", "b"}, out["collections"]); diff != "" {
				t.Errorf("collections mismatch (-want +got):\n%s", diff)
			}
		}},
		{"listDatabases", "/_cmd", `{"listDatabases":1}`, func(t *testing.T, out map[string]any) {
			if diff := cmp.Diff([]any{map[string]any{"name": "db"}}, out["databases"]); diff != "" {
				t.Errorf("databases mismatch (-want +got):\n%s", diff)
			}
		}},
		{"drop", "/db/_cmd", `{"drop":"b"}`, func(t *testing.T, out map[string]any) {
			if out["ns"] != "db.b" {
				t.Errorf("unexpected drop reply %v", out)
			}
		}},
		{"drop missing", "/db/_cmd", `{"drop":"b"}`, func(t *testing.T, out map[string]any) {
			if out["ok"] != 0.0 {
				t.Errorf("expected ok 0 for missing collection, got %v", out)
			}
		}},
		{"unknown", "/_cmd", `{"frobnicate":1}`, func(t *testing.T, out map[string]any) {
			if out["ok"] != 0.0 || !strings.Contains(out["errmsg"].(string), "frobnicate") {
				t.Errorf("unexpected reply %v", out)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := do(t, g, http.MethodPost, tt.target, "obj="+url.QueryEscape(tt.obj))
			tt.check(t, out)
		})
	}
}

func TestFailAndRecover(t *testing.T) {
	g := New()
	g.Fail("_hello", http.StatusServiceUnavailable, "down")
	code, out := do(t, g, http.MethodGet, "/_hello", "")
	if code != http.StatusServiceUnavailable || out["errmsg"] != "down" {
		t.Errorf("expected configured failure, got %d %v", code, out)
	}
	g.Recover("_hello")
	if code, _ := do(t, g, http.MethodGet, "/_hello", ""); code != http.StatusOK {
		t.Errorf("expected recovery, got %d", code)
	}
}

func TestRecordsRequests(t *testing.T) {
	srv := NewServer(t)
	resp, err := http.Post(srv.URL+"/db/coll/_insert", "application/x-www-form-urlencoded", strings.NewReader("docs=%5B%5D"))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	_ = resp.Body.Close()

	got := srv.LastRequest()
	if got.Method != http.MethodPost || got.Path != "/db/coll/_insert" || got.Body != "docs=%5B%5D" {
		t.Errorf("unexpected recorded request %+v", got)
	}
	if got.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("content type not recorded: %q", got.ContentType)
	}
	if len(srv.Requests()) != 1 {
		t.Errorf("expected 1 recorded request, got %d", len(srv.Requests()))
	}
}

func TestNoRoute(t *testing.T) {
	code, out := do(t, New(), http.MethodGet, "/db/coll/_bogus", "")
	if code != http.StatusNotFound || out["ok"] != 0.0 {
		t.Errorf("expected 404 ok 0, got %d %v", code, out)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestNegativeIntArgsRejected(t *testing.T) {
	g := New()
	g.Seed("db", "coll", Document{"a": 1.0})

	for _, target := range []string{
		"/db/coll/_find?skip=-1",
		"/db/coll/_find?limit=-2",
		"/db/coll/_find?batch_size=-3",
	} {
		code, out := do(t, g, http.MethodGet, target, "")
		if code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, code)
		}
		if out["ok"] != 0.0 || !strings.Contains(out["errmsg"].(string), "must not be negative") {
			t.Errorf("%s: reply = %v", target, out)
		}
	}
}
