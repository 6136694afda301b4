package sleepy

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/sleepy/errors"
)

func TestParamsEncodeOrderAndEscaping(t *testing.T) {
	p := NewParams("criteria", map[string]any{"x": 1}, "limit", 5)
	got, err := p.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "criteria=%7B%22x%22%3A1%7D&limit=5"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestParamsSetKeepsFirstPosition(t *testing.T) {
	p := NewParams("a", 1, "b", 2)
	p.Set("a", 3)
	if diff := cmp.Diff([]string{"a", "b"}, p.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := p.Get("a"); v != 3 {
		t.Errorf("expected a=3, got %v", v)
	}
}

func TestParamsNilAndEmpty(t *testing.T) {
	var p *Params
	if got, err := p.Encode(); got != "" || err != nil {
		t.Errorf("nil params encoded to %q, %v", got, err)
	}
	if p.Len() != 0 || p.Keys() != nil {
		t.Error("nil params should be empty")
	}
	if got, _ := (&Params{}).Encode(); got != "" {
		t.Errorf("empty params encoded to %q", got)
	}
}

func TestEncodeValueScalarsVerbatim(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{"localhost:27017", "localhost:27017"},
		{"a b&c", "a b&c"},
		{42, "42"},
		{int64(-7), "-7"},
		{CursorID(9007199254740993), "9007199254740993"},
		{1.5, "1.5"},
		{true, "true"},
		{json.Number("12"), "12"},
	}
	for _, tt := range tests {
		got, err := EncodeValue("k", tt.value)
		if err != nil {
			t.Fatalf("EncodeValue(%v) error: %v", tt.value, err)
		}
		if got != tt.want {
			t.Errorf("EncodeValue(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestEncodeValueStructuredRoundTrip(t *testing.T) {
	type point struct {
		X int    `json:"x"`
		Y string `json:"y"`
	}
	values := []any{
		map[string]any{"name": "a b", "tags": []any{"x", "y"}, "n": 1.0},
		[]any{map[string]any{"a": 1.0}},
		[2]int{1, 2},
		point{X: 1, Y: "+&="},
		&point{X: 2},
		json.RawMessage(`{"raw": true}`),
		nil,
	}
	for _, v := range values {
		encoded, err := EncodeValue("k", v)
		if err != nil {
			t.Fatalf("EncodeValue(%v) error: %v", v, err)
		}
		if strings.ContainsAny(encoded, " +&=\"{") {
			t.Errorf("encoded value %q is not fully escaped", encoded)
		}
		decoded, err := url.QueryUnescape(encoded)
		if err != nil {
			t.Fatalf("unescape %q: %v", encoded, err)
		}
		want, _ := json.Marshal(v)
		var gotV, wantV any
		if err := json.Unmarshal([]byte(decoded), &gotV); err != nil {
			t.Fatalf("decoded value %q is not JSON: %v", decoded, err)
		}
		_ = json.Unmarshal(want, &wantV)
		if diff := cmp.Diff(wantV, gotV); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEncodeValueSpacesArePercentEncoded(t *testing.T) {
	got, _ := EncodeValue("criteria", map[string]string{"n": "a b"})
	if !strings.Contains(got, "%20") || strings.Contains(got, "+") {
		t.Errorf("expected %%20 for spaces, got %q", got)
	}
}

func TestEncodeValueUnencodable(t *testing.T) {
	_, err := NewParams("criteria", map[string]any{"x": math.Inf(1)}).Encode()
	if !errors.HasCode(err, errors.ErrCodeEncodeFailed) {
		t.Fatalf("expected ENCODE_FAILED, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["key"] != "criteria" {
		t.Errorf("expected key detail, got %v", appErr.Details)
	}
}

func TestOptionsParams(t *testing.T) {
	tests := []struct {
		name string
		p    *Params
		want string
	}{
		{"find nil", (*FindOptions)(nil).Params(), ""},
		{"find zero", (&FindOptions{}).Params(), ""},
		{"find full", (&FindOptions{
			Criteria: map[string]int{"x": 1}, Fields: map[string]int{"a": 1},
			Skip: 2, Limit: 5, BatchSize: 10,
		}).Params(), "criteria=%7B%22x%22%3A1%7D&fields=%7B%22a%22%3A1%7D&skip=2&limit=5&batch_size=10"},
		{"more", MoreOptions{ID: 12}.Params(), "id=12"},
		{"more batch", MoreOptions{ID: 12, BatchSize: 3}.Params(), "id=12&batch_size=3"},
		{"remove nil", (*RemoveOptions)(nil).Params(), ""},
		{"remove", (&RemoveOptions{Criteria: map[string]int{"x": 1}}).Params(), "criteria=%7B%22x%22%3A1%7D"},
		{"update", UpdateOptions{
			Criteria: map[string]int{"x": 1},
			NewObj:   map[string]any{"$set": map[string]int{"y": 2}},
		}.Params(), "criteria=%7B%22x%22%3A1%7D&newobj=%7B%22%24set%22%3A%7B%22y%22%3A2%7D%7D"},
		{"insert", InsertOptions{Docs: []map[string]int{{"a": 1}}}.Params(), "docs=%5B%7B%22a%22%3A1%7D%5D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Encode()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPath(t *testing.T) {
	tests := []struct {
		db, coll, op, want string
	}{
		{"", "", "_connect", "/_connect"},
		{"", "", "_cmd", "/_cmd"},
		{"db", "", "_cmd", "/db/_cmd"},
		{"db", "coll", "_find", "/db/coll/_find"},
		{"my db", "a/b", "_find", "/my%20db/a%2Fb/_find"},
	}
	for _, tt := range tests {
		if got := buildPath(tt.db, tt.coll, tt.op); got != tt.want {
			t.Errorf("buildPath(%q, %q, %q) = %q, want %q", tt.db, tt.coll, tt.op, got, tt.want)
		}
	}
}

func TestIsStructured(t *testing.T) {
	var anyVal any = map[string]int{"a": 1}
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"map", map[string]any{}, true},
		{"slice", []int{1}, true},
		{"array", [2]int{}, true},
		{"struct", struct{ A int }{}, true},
		{"pointer", &struct{}{}, true},
		{"raw json", json.RawMessage(`{}`), true},
		{"map behind any", anyVal, true},
		{"string", "a b", false},
		{"int", 5, false},
		{"bool", true, false},
		{"float", 1.5, false},
		{"cursor id", CursorID(7), false},
	}
	for _, tt := range tests {
		if got := IsStructured(tt.value); got != tt.want {
			t.Errorf("%s: IsStructured = %v, want %v", tt.name, got, tt.want)
		}
	}
}
