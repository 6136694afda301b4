package sleepy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kbukum/sleepy/errors"
)

// Flag is the gateway's ok field. It accepts 0/1, 1.0 and true/false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	switch s {
	case "true":
		*f = true
		return nil
	case "false", "null":
		*f = false
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("sleepy: invalid ok flag %s", s)
	}
	*f = n != 0
	return nil
}

// MarshalJSON writes 1 or 0.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// Status is the part every gateway reply shares.
type Status struct {
	OK     Flag   `json:"ok"`
	Msg    string `json:"msg,omitempty"`
	Errmsg string `json:"errmsg,omitempty"`
}

// IsOK reports whether the gateway answered ok.
func (s Status) IsOK() bool { return bool(s.OK) }

// Err returns a NOT_OK error when ok is false.
func (s Status) Err() error {
	if s.OK {
		return nil
	}
	msg := s.Errmsg
	if msg == "" {
		msg = s.Msg
	}
	return errors.NotOK(msg)
}

// CursorResult is the reply to find and more.
type CursorResult struct {
	Status
	Results []json.RawMessage `json:"results"`
	// ID continues the cursor. The gateway sends 0 once it is exhausted.
	ID CursorID `json:"id"`
}

// DecodeResults unmarshals every document in r into T.
func DecodeResults[T any](r *CursorResult) ([]T, error) {
	out := make([]T, 0, len(r.Results))
	for i, raw := range r.Results {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, errors.DecodeFailed(fmt.Sprintf("result %d", i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// CommandResult is the reply to a command. Body holds the whole reply.
type CommandResult struct {
	Status
	Body json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the full body alongside the status fields.
func (r *CommandResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Status); err != nil {
		return err
	}
	r.Body = append(json.RawMessage(nil), data...)
	return nil
}

// Decode unmarshals the full reply into v.
func (r *CommandResult) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.DecodeFailed("command", err)
	}
	return nil
}
