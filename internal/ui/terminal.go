/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/generation"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
)

// Terminal is the line-oriented skin. It prints the editor and reader views and,
// in Run, reads commands from In until EOF or "quit".
type Terminal struct {
	In   io.Reader
	Out  io.Writer
	View View

	mu  sync.Mutex
	bg  sync.WaitGroup
	log *slog.Logger
	sc  *bufio.Scanner
}

// DeletePageQuestion asks for confirmation before page index is removed. It
// reports false when the page does not exist.
func DeletePageQuestion(p domain.Project, index int) (string, bool) {
	if index < 0 || index >= len(p.Pages) {
		return "", false
	}
	return fmt.Sprintf("delete page %d and its %d panels? [y/N] ", index+1, len(p.Pages[index].Panels)), true
}

// ReadYes reads one answer line. Only y or yes confirm; EOF declines.
func ReadYes(sc *bufio.Scanner) bool {
	if sc == nil || !sc.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(sc.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

// NewTerminal returns a terminal skin bound to the given streams.
func NewTerminal(in io.Reader, out io.Writer, view View) *Terminal {
	return &Terminal{In: in, Out: out, View: view, log: applog.WithComponent("ui.terminal")}
}

func (t *Terminal) Name() string { return "terminal" }

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.Out, format, args...)
}

// Show prints the project in the current view.
func (t *Terminal) Show(p domain.Project) {
	if t.View == ViewReader {
		t.printf("%s", ReaderText(p))
		return
	}
	t.printf("%s", EditorText(p))
}

// EditorText renders every editable field of the project.
func EditorText(p domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", p.Title)
	if p.Author != "" {
		fmt.Fprintf(&b, "  by %s", p.Author)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "style: %s\n", p.Style)
	fmt.Fprintf(&b, "context: %s\n", p.GlobalContext)
	if len(p.Characters) > 0 {
		b.WriteString("cast:\n")
		for _, c := range p.Characters {
			avatar := ""
			if c.Avatar != "" {
				avatar = " [avatar]"
			}
			fmt.Fprintf(&b, "  %-8s %s  %s%s\n", c.ID, c.Name, truncate(c.Personality, 60), avatar)
		}
	}
	for i, pg := range p.Pages {
		fmt.Fprintf(&b, "page %d  #%02d %s\n", i+1, pg.PageNumber, pg.Title)
		for _, pnl := range pg.Panels {
			img := "-"
			if pnl.ImageURL != "" {
				img = "img"
			}
			fmt.Fprintf(&b, "  %-12s %-10s %-3s %s\n", pnl.ID, statusOf(pnl), img, truncate(pnl.Description, 70))
		}
	}
	return b.String()
}

// ReaderText renders pages in order with their images or placeholders, without edit affordances.
func ReaderText(p domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", p.Title)
	if p.PublishedAt != "" {
		fmt.Fprintf(&b, "published %s\n", p.PublishedAt)
	}
	for _, pg := range p.Pages {
		fmt.Fprintf(&b, "\n-- %02d %s --\n", pg.PageNumber, strings.ToUpper(pg.Title))
		for i, pnl := range pg.Panels {
			frame := "[ placeholder ]"
			if pnl.ImageURL != "" {
				frame = "[ image ]"
			}
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, frame, pnl.Description)
		}
	}
	return b.String()
}

// LibraryText lists published entries oldest first.
func LibraryText(lib domain.Library) string {
	if len(lib) == 0 {
		return "library is empty\n"
	}
	var b strings.Builder
	for _, e := range lib {
		fmt.Fprintf(&b, "%s  %s  %s  (%d pages)\n", e.ID, e.PublishedAt, e.Title, len(e.Pages))
	}
	return b.String()
}

func statusOf(p domain.Panel) domain.PanelStatus {
	if p.Status == "" {
		return domain.StatusIdle
	}
	return p.Status
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

const terminalHelp = `commands:
  show | reader | editor          print the project
  add-page | del-page N           append or remove page N (1-based)
  add-panel N | del-panel ID      append a panel to page N or remove one
  desc ID TEXT | title N TEXT     edit a panel description or page title
  gen ID | refine ID [TEXT]       start a generation (refine edits the current image)
  draft ID TEXT                   keep a refine instruction for later
  gen-page N                      generate every idle or failed panel of page N
  wait                            block until running generations finish
  undo | redo                     step through edit history
  publish | library               snapshot to the library or list it
  quit
`

// Run reads commands until EOF or quit. Generation outcomes are printed as
// they arrive; quitting waits for running generations.
func (t *Terminal) Run(ctx context.Context, st *Station) error {
	if t.log == nil {
		t.log = applog.WithComponent("ui.terminal")
	}
	evs, unsubscribe := st.Bus.Subscribe(events.GenerationSucceeded, events.GenerationFailed, events.UploadRejected, events.Published)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range evs {
			t.printEvent(e)
		}
	}()
	defer func() {
		t.wait(st)
		unsubscribe()
		<-done
	}()

	t.Show(st.Model.Snapshot())
	sc := bufio.NewScanner(t.In)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	t.sc = sc
	for {
		t.printf("> ")
		if !sc.Scan() {
			t.printf("\n")
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		quit, err := t.exec(ctx, st, line)
		if err != nil {
			t.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (t *Terminal) printEvent(e events.Event) {
	switch e.Type {
	case events.GenerationSucceeded:
		t.printf("\n[%s] image ready\n", e.PanelID)
	case events.GenerationFailed:
		t.printf("\n[%s] generation failed: %s\n", e.PanelID, e.Message)
	default:
		t.printf("\n%s\n", e.Message)
	}
}

func (t *Terminal) wait(st *Station) {
	t.bg.Wait()
	st.Generator.Wait()
}

var errUsage = errors.New("usage: see help")

func (t *Terminal) exec(ctx context.Context, st *Station, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	arg, text, _ := strings.Cut(rest, " ")
	text = strings.TrimSpace(text)
	m := st.Model

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help", "?":
		t.printf("%s", terminalHelp)
	case "show":
		t.Show(m.Snapshot())
	case "reader":
		t.View = ViewReader
		t.Show(m.Snapshot())
	case "editor":
		t.View = ViewEditor
		t.Show(m.Snapshot())
	case "add-page":
		t.printf("page %d added\n", m.AddPage(ctx)+1)
	case "del-page":
		n, err := pageArg(arg)
		if err != nil {
			return false, err
		}
		q, ok := DeletePageQuestion(m.Snapshot(), n)
		if !ok {
			return false, m.DeletePage(ctx, n)
		}
		t.printf("%s", q)
		if !ReadYes(t.sc) {
			t.printf("page %d kept\n", n+1)
			return false, nil
		}
		if err := m.DeletePage(ctx, n); err != nil {
			return false, err
		}
		t.printf("page %d deleted\n", n+1)
	case "add-panel":
		n, err := pageArg(arg)
		if err != nil {
			return false, err
		}
		id, err := m.AddPanel(ctx, n)
		if err != nil {
			return false, err
		}
		t.printf("panel %s added\n", id)
	case "del-panel":
		return false, m.DeletePanel(ctx, arg)
	case "desc":
		return false, m.UpdatePanel(ctx, arg, project.PanelPatch{Description: project.Ptr(text)})
	case "title":
		n, err := pageArg(arg)
		if err != nil {
			return false, err
		}
		return false, m.UpdatePage(ctx, n, project.PagePatch{Title: project.Ptr(text)})
	case "draft":
		st.Generator.SetInstruction(arg, text)
	case "gen", "refine":
		mode := generation.ModeNew
		if cmd == "refine" {
			mode = generation.ModeRefine
		}
		if err := st.Generator.Start(ctx, arg, mode, text); err != nil {
			return false, err
		}
		t.printf("[%s] generating\n", arg)
	case "gen-page":
		n, err := pageArg(arg)
		if err != nil {
			return false, err
		}
		t.bg.Add(1)
		go func() {
			defer t.bg.Done()
			if _, err := st.Generator.GeneratePage(ctx, n); err != nil {
				t.log.Warn("page generation finished with errors", slog.Int("page", n+1), slog.Any("err", err))
			}
		}()
		t.printf("page %d generating\n", n+1)
	case "wait":
		t.wait(st)
	case "undo", "redo":
		step := m.Undo
		if cmd == "redo" {
			step = m.Redo
		}
		label, ok := step(ctx)
		if !ok {
			t.printf("nothing to %s\n", cmd)
			return false, nil
		}
		t.printf("%s: %s\n", cmd, label)
	case "publish":
		entry, err := st.Library.Publish(ctx, m.Snapshot())
		if err != nil {
			return false, err
		}
		t.printf("published %s\n", entry.ID)
	case "library":
		t.printf("%s", LibraryText(st.Library.Entries()))
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func pageArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page number: %w", errUsage)
	}
	return n - 1, nil
}
