package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/tailscale/hujson"

	"github.com/kbukum/sleepy/sleepy"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// report prints the reply and a status line. A reply with ok=0 is returned
// as an error so the command exits non-zero.
func report[T any](c *cli, reply *T, err error) error {
	if reply != nil {
		if werr := writeJSON(c.stdout, reply); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if s, ok := any(reply).(interface{ Err() error }); ok {
		if err := s.Err(); err != nil {
			return err
		}
	}
	okColor.Fprintln(c.stderr, "ok")
	return nil
}

// writeJSON prints v indented. Command replies are printed as received.
func writeJSON(w io.Writer, v any) error {
	var data []byte
	switch r := v.(type) {
	case *sleepy.CommandResult:
		var buf bytes.Buffer
		if err := json.Indent(&buf, r.Body, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		var err error
		if data, err = json.MarshalIndent(v, "", "  "); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, string(data))
	return err
}

func printError(w io.Writer, err error) {
	failColor.Fprint(w, "error: ")
	fmt.Fprintln(w, err)
}

// jsonValue is a flag holding a JSON document. Comments and trailing commas
// are accepted; "@path" reads the document from a file and "@-" from stdin.
type jsonValue struct {
	raw json.RawMessage
}

func (v *jsonValue) String() string { return string(v.raw) }

func (v *jsonValue) Type() string { return "json" }

func (v *jsonValue) Set(s string) error {
	raw, err := parseJSONArg(s)
	if err != nil {
		return err
	}
	v.raw = raw
	return nil
}

// value returns the document, or nil when the flag was not given.
func (v *jsonValue) value() any {
	if v.raw == nil {
		return nil
	}
	return v.raw
}

func parseJSONArg(s string) (json.RawMessage, error) {
	data := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		var err error
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, err
		}
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return json.RawMessage(bytes.TrimSpace(std)), nil
}
