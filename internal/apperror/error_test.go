package apperror

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_DefaultMessage(t *testing.T) {
	err := New(CodeIndicatorFetchFailed, WithContext("l2-pending-blocks"))

	if err.Message != messages[CodeIndicatorFetchFailed] {
		t.Errorf("message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "l2-pending-blocks") {
		t.Errorf("error string missing context: %s", err.Error())
	}
}

func TestNew_UnknownCodeUsesCode(t *testing.T) {
	err := New(Code("SOMETHING_ELSE"))
	if err.Message != "SOMETHING_ELSE" {
		t.Errorf("message = %q, want code", err.Message)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	wrapped := Wrap(cause, CodeChainConnectionFailed, "l1")
	if !errors.Is(wrapped, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if GetCode(wrapped) != CodeChainConnectionFailed {
		t.Errorf("code = %s", GetCode(wrapped))
	}

	again := Wrap(wrapped, CodeInternalError, "ignored")
	if again != wrapped {
		t.Error("expected existing AppError to be returned unchanged")
	}

	if Wrap(nil, CodeInternalError, "") != nil {
		t.Error("expected nil for nil error")
	}
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		config    bool
		transient bool
	}{
		{"configuration", New(CodeConfigurationError), true, false},
		{"build", New(CodeIndicatorBuildFailed), false, false},
		{"fetch", New(CodeIndicatorFetchFailed), false, true},
		{"plain", errors.New("timeout"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfiguration(tt.err); got != tt.config {
				t.Errorf("IsConfiguration = %v, want %v", got, tt.config)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
		})
	}
}

func TestIs_ByCode(t *testing.T) {
	a := New(CodeCircuitOpen, WithContext("l1"))
	b := New(CodeCircuitOpen)

	if !errors.Is(a, b) {
		t.Error("expected errors with the same code to match")
	}
	if errors.Is(a, New(CodeCircuitHalfOpen)) {
		t.Error("expected different codes not to match")
	}
}
