package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationMarshalsAsString(t *testing.T) {
	b, err := json.Marshal(Duration(90 * time.Second))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"1m30s"` {
		t.Errorf("marshal = %s, want \"1m30s\"", b)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"2m"`), &d); err != nil {
		t.Fatalf("unmarshal string form: %v", err)
	}
	if d.ToDuration() != 2*time.Minute {
		t.Errorf("string form = %v, want 2m", d.ToDuration())
	}

	// Executions recorded before the string encoding stored raw nanoseconds.
	if err := json.Unmarshal([]byte(`60000000000`), &d); err != nil {
		t.Fatalf("unmarshal legacy form: %v", err)
	}
	if d.ToDuration() != time.Minute {
		t.Errorf("legacy form = %v, want 1m", d.ToDuration())
	}

	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Error("expected an error for a non-duration value")
	}
}
