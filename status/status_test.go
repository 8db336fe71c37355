package status

import (
	"errors"
	"testing"
)

func TestErrUnwrapsToStatus(t *testing.T) {
	err := Err(Protocol, "too many points received")
	if !errors.Is(err, Protocol) {
		t.Fatalf("errors.Is(err, Protocol) = false, want true")
	}
	if errors.Is(err, Skipped) {
		t.Fatalf("errors.Is(err, Skipped) = true, want false")
	}
}

func TestStatusIsItselfAnError(t *testing.T) {
	var err error = Timeout
	if !errors.Is(err, Timeout) {
		t.Fatalf("expected Timeout to satisfy errors.Is against itself")
	}
}

func TestStringers(t *testing.T) {
	cases := map[Status]string{
		Ok:            "ok",
		Timeout:       "timeout",
		Skipped:       "skipped",
		OutOfContexts: "out of contexts",
		Protocol:      "protocol error",
		Argument:      "invalid argument",
		NotPermitted:  "not permitted",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
