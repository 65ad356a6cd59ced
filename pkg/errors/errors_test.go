// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and utility functions

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/liboverride/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_copyable_error",
			code:    errors.ErrNotCopyable,
			message: "window manager cannot be copied",
			wantStr: "[NOT_COPYABLE] window manager cannot be copied",
		},
		{
			name:    "missing_reference_error",
			code:    errors.ErrMissingReference,
			message: "reference is a placeholder",
			wantStr: "[MISSING_REFERENCE] reference is a placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Message != tt.message {
				t.Errorf("New() message = %q, want %q", err.Message, tt.message)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := errors.Newf(errors.ErrNotFound, "no %s named %q", "object", "Body")
	if err.Message != `no object named "Body"` {
		t.Errorf("Newf() message = %q", err.Message)
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrInternal, "internal error")

		if err.Code != errors.ErrInternal {
			t.Errorf("Wrap() code = %v, want %v", err.Code, errors.ErrInternal)
		}
		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}
		wantStr := "[INTERNAL] internal error: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
		if err := errors.Wrapf(nil, errors.ErrDecode, "decode %d", 1); err != nil {
			t.Error("Wrapf(nil) should return nil")
		}
	})
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrHierarchyInvalid, "roots disagree").
		WithDetail("id", "OBBody").
		WithDetail("root", "OBRig").
		WithDetails(map[string]interface{}{"candidate": "OBOther"})

	if err.Details["id"] != "OBBody" {
		t.Errorf("WithDetail() id = %v", err.Details["id"])
	}
	if err.Details["root"] != "OBRig" {
		t.Errorf("WithDetail() root = %v", err.Details["root"])
	}
	if err.Details["candidate"] != "OBOther" {
		t.Errorf("WithDetails() candidate = %v", err.Details["candidate"])
	}
	if errors.GetErrorDetails(err)["id"] != "OBBody" {
		t.Error("GetErrorDetails() should expose details")
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrNotFound, "error 1")
	err2 := errors.New(errors.ErrNotFound, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	t.Run("same_code_is_equal", func(t *testing.T) {
		if !err1.Is(err2) {
			t.Error("Is() should return true for same code")
		}
	})

	t.Run("different_code_not_equal", func(t *testing.T) {
		if err1.Is(err3) {
			t.Error("Is() should return false for different codes")
		}
	})

	t.Run("works_with_errors_Is", func(t *testing.T) {
		if !stderrors.Is(err1, err2) {
			t.Error("errors.Is() should work with OverrideError")
		}
	})
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrNotFound, "not found"), errors.ErrNotFound, true},
		{"different_code", errors.New(errors.ErrNotFound, "not found"), errors.ErrInternal, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrDecode, "bad record"), errors.ErrDecode, true},
		{"plain_error", stderrors.New("standard error"), errors.ErrNotFound, false},
		{"nil_error", nil, errors.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected errors.ErrorCode
	}{
		{"override_error", errors.New(errors.ErrNotOverridable, "scene"), errors.ErrNotOverridable},
		{"standard_error", stderrors.New("standard error"), errors.ErrUnknown},
		{"nil_error", nil, errors.ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	rootCause := stderrors.New("root cause")
	decodeErr := errors.Wrap(rootCause, errors.ErrDecode, "cannot decode override record")
	fixtureErr := errors.Wrap(decodeErr, errors.ErrFixtureLoad, "failed to load scene")

	t.Run("top_level_has_correct_code", func(t *testing.T) {
		if !errors.IsErrorCode(fixtureErr, errors.ErrFixtureLoad) {
			t.Error("Top level should have ErrFixtureLoad code")
		}
	})

	t.Run("can_find_middle_error", func(t *testing.T) {
		var oerr *errors.OverrideError
		if stderrors.As(fixtureErr.Unwrap(), &oerr) {
			if !errors.IsErrorCode(oerr, errors.ErrDecode) {
				t.Error("Middle error should have ErrDecode code")
			}
		} else {
			t.Error("Middle error should be an OverrideError")
		}
	})

	t.Run("can_find_root_cause", func(t *testing.T) {
		if !stderrors.Is(fixtureErr, rootCause) {
			t.Error("Should find root cause with errors.Is")
		}
	})
}
