package event

import (
	"testing"
	"time"
)

func TestTypeValid(t *testing.T) {
	for _, typ := range Types {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	for _, typ := range []Type{"", "face_loss", "NO_FACE"} {
		if typ.Valid() {
			t.Errorf("%q should be invalid", typ)
		}
	}
}

func TestSeverityValid(t *testing.T) {
	for _, s := range Severities {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Severity("critical").Valid() {
		t.Error("\"critical\" should be invalid")
	}
}

func TestDraftValidate(t *testing.T) {
	good := Draft{
		Type:        NoFace,
		Severity:    SeverityHigh,
		Description: "No face detected for more than 10 seconds",
		Timestamp:   time.Now(),
	}
	if err := good.Validate(); err != nil {
		t.Errorf("valid draft rejected: %v", err)
	}

	bad := Draft{Type: "bogus", Severity: SeverityHigh}
	if err := bad.Validate(); err == nil {
		t.Error("invalid type accepted")
	}

	bad = Draft{Type: NoFace, Severity: "critical"}
	if err := bad.Validate(); err == nil {
		t.Error("invalid severity accepted")
	}
}
