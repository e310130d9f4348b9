package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := fmt.Errorf("connection refused")
	err := Wrap(ErrExternalTool, "rate", "complete", "model call failed", base)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	for _, fragment := range []string{"rate", "complete", "model call failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("missing %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "discover", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient fallback, got %v", err)
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := Wrap(ErrValidation, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected generic detail, got %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{Wrap(ErrValidation, "rate", "", "bad score", nil), false},
		{Wrap(ErrConfiguration, "discover", "", "missing key", nil), false},
		{Wrap(ErrExternalTool, "enrich", "", "http 503", nil), true},
		{Wrap(ErrTransient, "hydrate", "", "timeout", nil), true},
		{errors.New("plain"), true},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
