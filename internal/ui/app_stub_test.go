//go:build !fyne

package ui

import (
	"context"
	"strings"
	"testing"
)

func TestDesktopStub_ReturnsHelpfulError(t *testing.T) {
	err := Desktop{}.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error from Run() in non-fyne build, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "not built") || !strings.Contains(msg, "-tags fyne") {
		t.Fatalf("unexpected error message: %q", msg)
	}
}
