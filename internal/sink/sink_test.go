package sink

import "testing"

func TestHandlersAreInvoked(t *testing.T) {
	var warnings, errs []string
	SetWarningHandler(func(msg string) { warnings = append(warnings, msg) })
	SetErrorHandler(func(msg string) { errs = append(errs, msg) })
	defer SetWarningHandler(nil)
	defer SetErrorHandler(nil)

	Warnf("count mismatch: %d != %d", 1, 2)
	Errorf("too many points received")

	if len(warnings) != 1 || warnings[0] != "count mismatch: 1 != 2" {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(errs) != 1 || errs[0] != "too many points received" {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestNilHandlerResetsToDefault(t *testing.T) {
	SetWarningHandler(func(string) {})
	SetWarningHandler(nil)
	// Should not panic and should still be callable.
	Warnf("fallback works")
}
