package sleepy

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/sleepy/errors"
)

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{`1`, true},
		{`1.0`, true},
		{`0`, false},
		{`0.0`, false},
		{`true`, true},
		{`false`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		var f Flag
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if f != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, f, tt.want)
		}
	}

	var f Flag
	if err := json.Unmarshal([]byte(`"yes"`), &f); err == nil {
		t.Error("expected error for string flag")
	}
}

func TestFlagMarshal(t *testing.T) {
	data, _ := json.Marshal(Status{OK: true})
	if string(data) != `{"ok":1}` {
		t.Errorf("got %s", data)
	}
}

func TestStatusErr(t *testing.T) {
	if err := (Status{OK: true}).Err(); err != nil {
		t.Errorf("expected nil for ok status, got %v", err)
	}

	err := Status{Errmsg: "couldn't parse json"}.Err()
	if !errors.HasCode(err, errors.ErrCodeNotOK) {
		t.Fatalf("expected NOT_OK, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Message != "couldn't parse json" {
		t.Errorf("expected errmsg as message, got %q", appErr.Message)
	}

	appErr, _ = errors.AsAppError(Status{Msg: "fallback"}.Err())
	if appErr.Message != "fallback" {
		t.Errorf("expected msg fallback, got %q", appErr.Message)
	}
}

func TestCursorResultDecode(t *testing.T) {
	var res CursorResult
	body := `{"ok":1,"results":[{"_id":"a","n":1},{"_id":"b","n":2}],"id":7}`
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsOK() || res.ID != 7 || len(res.Results) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	type doc struct {
		ID string `json:"_id"`
		N  int    `json:"n"`
	}
	docs, err := DecodeResults[doc](&res)
	if err != nil {
		t.Fatalf("DecodeResults error: %v", err)
	}
	if diff := cmp.Diff([]doc{{"a", 1}, {"b", 2}}, docs); diff != "" {
		t.Errorf("docs mismatch (-want +got):\n%s", diff)
	}

	if _, err := DecodeResults[int](&res); !errors.HasCode(err, errors.ErrCodeDecodeFailed) {
		t.Errorf("expected DECODE_FAILED, got %v", err)
	}
}

func TestCommandResultKeepsBody(t *testing.T) {
	var res CommandResult
	body := `{"ok":1.0,"n":3}`
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsOK() {
		t.Error("expected ok")
	}
	var count struct {
		N int `json:"n"`
	}
	if err := res.Decode(&count); err != nil || count.N != 3 {
		t.Errorf("Decode() = %+v, %v", count, err)
	}
	if string(res.Body) != body {
		t.Errorf("body not kept verbatim: %s", res.Body)
	}
}
