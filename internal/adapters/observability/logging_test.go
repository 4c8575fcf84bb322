package observability

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLogger_ProdIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("prod", &buf)

	l.Debug().Msg("hidden")
	l.Info().Str("op", "list").Msg("visible")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if rec["message"] != "visible" || rec["service"] != "hotel_listings" || rec["env"] != "prod" || rec["op"] != "list" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewLogger_DevIsConsoleAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("dev", &buf)

	l.Debug().Msg("shown in dev")
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("shown in dev")) {
		t.Fatalf("debug line missing: %q", out)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("dev output should not be JSON: %q", out)
	}
}
