//go:build fyne && !cgo

package ui

import (
	"context"
	"fmt"
)

// Desktop informs the user that the Fyne skin requires cgo (OpenGL) and a C toolchain.
// This stub is compiled when the build uses -tags fyne but CGO is disabled.
type Desktop struct{}

func (Desktop) Name() string { return "desktop" }

func (Desktop) Run(_ context.Context, _ *Station) error {
	return fmt.Errorf("Fyne UI requires cgo (OpenGL). Enable cgo and install a C toolchain. On Windows: install MSYS2/MinGW-w64, ensure gcc is on PATH, then run with CGO_ENABLED=1. Example: set CGO_ENABLED=1 && go run -tags fyne ./cmd/comicstation ui --skin desktop")
}
