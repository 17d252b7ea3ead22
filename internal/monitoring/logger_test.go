package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not have triggered the previous callback")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
