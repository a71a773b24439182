// pkg/errors/errors_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test error creation, wrapping, and exit code mapping

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/arthur-debert/modsync/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "not_found_error",
			code:    errors.ErrNotFound,
			message: "file not found",
			wantStr: "[NOT_FOUND] file not found",
		},
		{
			name:    "schema_error",
			code:    errors.ErrIncompatibleSchema,
			message: "unsupported manifest version 2",
			wantStr: "[INCOMPATIBLE_SCHEMA] unsupported manifest version 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
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

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("connection refused")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrapf(baseErr, errors.ErrRemoteFetch, "failed to fetch %s", "a.jar")

		if err.Wrapped != baseErr {
			t.Error("Wrapf() should preserve wrapped error")
		}

		wantStr := "[REMOTE_FETCH] failed to fetch a.jar: connection refused"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrPruneFailed, "cannot remove").
		WithDetail("file", "stale.jar")

	details := errors.GetErrorDetails(err)
	if details["file"] != "stale.jar" {
		t.Errorf("details[file] = %v, want stale.jar", details["file"])
	}
}

func TestIs(t *testing.T) {
	err1 := errors.New(errors.ErrRemoteFetch, "error 1")
	err2 := errors.New(errors.ErrRemoteFetch, "error 2")
	err3 := errors.New(errors.ErrInternal, "error 3")

	if !stderrors.Is(err1, err2) {
		t.Error("errors.Is() should match on code")
	}
	if stderrors.Is(err1, err3) {
		t.Error("errors.Is() should not match different codes")
	}
}

func TestHasErrorCode(t *testing.T) {
	inner := errors.New(errors.ErrRemoteFetch, "404")
	outer := errors.Wrap(fmt.Errorf("resolving: %w", inner), errors.ErrRollbackFailed, "restore failed")

	if !errors.HasErrorCode(outer, errors.ErrRemoteFetch) {
		t.Error("HasErrorCode() should find a nested code")
	}
	if !errors.IsErrorCode(outer, errors.ErrRollbackFailed) {
		t.Error("IsErrorCode() should see the outer code")
	}
	if errors.IsErrorCode(outer, errors.ErrRemoteFetch) {
		t.Error("IsErrorCode() should only look at the outer code")
	}
	if errors.HasErrorCode(nil, errors.ErrRemoteFetch) {
		t.Error("HasErrorCode(nil) should be false")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := errors.GetErrorCode(stderrors.New("plain")); got != errors.ErrUnknown {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrUnknown)
	}
	if got := errors.GetErrorCode(errors.New(errors.ErrPruneFailed, "x")); got != errors.ErrPruneFailed {
		t.Errorf("GetErrorCode() = %v, want %v", got, errors.ErrPruneFailed)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, errors.ExitOK},
		{"plain", stderrors.New("boom"), errors.ExitFailure},
		{"schema", errors.New(errors.ErrIncompatibleSchema, "v2"), errors.ExitIncompatibleSchema},
		{"platform", errors.New(errors.ErrIncompatiblePlatform, "1.12"), errors.ExitIncompatiblePlatform},
		{"rolled_back_fetch", errors.New(errors.ErrRemoteFetch, "404"), errors.ExitFailure},
		{
			name: "rollback_failed_wins",
			err:  errors.Wrap(errors.New(errors.ErrPruneFailed, "x"), errors.ErrRollbackFailed, "restore"),
			want: errors.ExitRollbackFailed,
		},
		{
			name: "wrapped_by_fmt",
			err:  fmt.Errorf("sync: %w", errors.New(errors.ErrIncompatiblePlatform, "1.12")),
			want: errors.ExitIncompatiblePlatform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
