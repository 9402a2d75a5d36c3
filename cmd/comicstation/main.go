/*
 * Copyright (c) 2026 by SEUB66.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Command comicstation edits a comic project, generates its panels and publishes it.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/assets"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/config"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/crash"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/export"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/generation"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/ui"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/version"
)

func usage(out io.Writer) {
	_, _ = fmt.Fprintf(out, `Comic Station %s

Usage:
  comicstation version                         Show version
  comicstation init                            Write the config file and save the current project
  comicstation show [--reader]                 Print the project (editor or reader view)
  comicstation add-page                        Append a page
  comicstation delete-page [--yes] <n>         Remove page n (1-based), asking first unless --yes
  comicstation add-panel <n>                   Append a panel to page n
  comicstation delete-panel <id>               Remove a panel
  comicstation describe <id> <text>            Set a panel description
  comicstation title <n> <text>                Set a page title
  comicstation meta [--title] [--author] [--style] [--context]
  comicstation character add <name> [personality]
  comicstation character set <id> [--name] [--personality] [--avatar file]
  comicstation generate <id>                   Render a panel from its description
  comicstation refine <id> [instruction]       Edit a panel's current image
  comicstation generate-page <n>               Render every idle or failed panel of page n
  comicstation upload-panel <id> <file>        Use an image file as a panel's picture
  comicstation asset <slot> <file>|--clear     Set or clear a branding/reference slot
  comicstation assets                          List slots
  comicstation set-key [provider] <key>|-      Store the API key in the OS keychain ("-" reads stdin)
  comicstation publish                         Snapshot the project into the library
  comicstation library                         List published entries
  comicstation export [--format json|cbz|pdf|png] [--out path] [--pages 1,2] [--entry id]
  comicstation ui [--skin terminal|desktop] [--reader]
`, version.String())
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// errUsage reports bad arguments; run maps it to exit code 2.
var errUsage = errors.New("invalid arguments")

func run(args []string, stdin io.Reader, out io.Writer) int {
	if len(args) == 0 {
		usage(out)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(out, "Comic Station", version.String())
		return 0
	case "help", "--help", "-h":
		usage(out)
		return 0
	}

	cfg, cerr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config load", slog.Any("err", cerr))
	}
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}

	if args[0] == "set-key" {
		return exitCode(out, setKey(cfg, args[1:], stdin, out))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st, closeStation, err := openStation(ctx, cfg)
	if err != nil {
		l.Error("startup failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
	defer closeStation()
	defer crash.Recover(cfg.Storage.DataDir, st.Model)

	c := &cli{st: st, cfg: cfg, out: out, in: stdin, l: l}
	return exitCode(out, c.dispatch(ctx, args))
}

func exitCode(out io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(out, "Error:", err)
		usage(out)
		return 2
	default:
		_, _ = fmt.Fprintln(out, "Error:", err)
		return 1
	}
}

type cli struct {
	st  *ui.Station
	cfg config.AppConfig
	out io.Writer
	in  io.Reader
	l   *slog.Logger
}

func (c *cli) printf(format string, args ...any) { _, _ = fmt.Fprintf(c.out, format, args...) }

func need(args []string, n int, what string) error {
	if len(args) < n {
		return fmt.Errorf("%s: %w", what, errUsage)
	}
	return nil
}

func pageIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("page number %q: %w", s, errUsage)
	}
	return n - 1, nil
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	m := c.st.Model
	cmd, rest := args[0], args[1:]
	c.l.Debug("command", slog.String("cmd", cmd), slog.Int("args", len(rest)))

	switch cmd {
	case "init":
		if err := config.Save(c.cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		if err := m.Save(ctx); err != nil {
			return err
		}
		path, _ := config.ConfigPath()
		c.printf("Config: %s\nData: %s (%s)\n", path, c.cfg.Storage.DataDir, c.cfg.Storage.Backend)
		return nil
	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		fs.SetOutput(c.out)
		reader := fs.Bool("reader", ui.ParseView(c.cfg.General.DefaultView) == ui.ViewReader, "reader view")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		view := ui.ViewEditor
		if *reader {
			view = ui.ViewReader
		}
		ui.NewTerminal(nil, c.out, view).Show(m.Snapshot())
		return nil
	case "add-page":
		c.printf("Added page %d\n", m.AddPage(ctx)+1)
		return nil
	case "delete-page":
		fs := flag.NewFlagSet("delete-page", flag.ContinueOnError)
		fs.SetOutput(c.out)
		yes := fs.Bool("yes", false, "delete without asking")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		if err := need(fs.Args(), 1, "delete-page [--yes] <n>"); err != nil {
			return err
		}
		n, err := pageIndex(fs.Arg(0))
		if err != nil {
			return err
		}
		if q, ok := ui.DeletePageQuestion(m.Snapshot(), n); ok && !*yes {
			c.printf("%s", q)
			if !ui.ReadYes(bufio.NewScanner(c.in)) {
				c.printf("Kept page %d\n", n+1)
				return nil
			}
		}
		return m.DeletePage(ctx, n)
	case "add-panel":
		if err := need(rest, 1, "add-panel <n>"); err != nil {
			return err
		}
		n, err := pageIndex(rest[0])
		if err != nil {
			return err
		}
		id, err := m.AddPanel(ctx, n)
		if err != nil {
			return err
		}
		c.printf("Added panel %s\n", id)
		return nil
	case "delete-panel":
		if err := need(rest, 1, "delete-panel <id>"); err != nil {
			return err
		}
		return m.DeletePanel(ctx, rest[0])
	case "describe":
		if err := need(rest, 2, "describe <id> <text>"); err != nil {
			return err
		}
		return m.UpdatePanel(ctx, rest[0], project.PanelPatch{Description: project.Ptr(strings.Join(rest[1:], " "))})
	case "title":
		if err := need(rest, 2, "title <n> <text>"); err != nil {
			return err
		}
		n, err := pageIndex(rest[0])
		if err != nil {
			return err
		}
		return m.UpdatePage(ctx, n, project.PagePatch{Title: project.Ptr(strings.Join(rest[1:], " "))})
	case "meta":
		return c.meta(ctx, rest)
	case "character":
		return c.character(ctx, rest)
	case "generate", "refine":
		if err := need(rest, 1, cmd+" <id>"); err != nil {
			return err
		}
		mode := generation.ModeNew
		if cmd == "refine" {
			mode = generation.ModeRefine
		}
		c.printf("Generating %s…\n", rest[0])
		res, err := c.st.Generator.RequestGeneration(ctx, rest[0], mode, strings.Join(rest[1:], " "))
		if err != nil {
			return err
		}
		if res.Discarded {
			c.printf("Panel %s was deleted; result dropped\n", res.PanelID)
			return nil
		}
		c.printf("Panel %s completed\n", res.PanelID)
		return nil
	case "generate-page":
		if err := need(rest, 1, "generate-page <n>"); err != nil {
			return err
		}
		n, err := pageIndex(rest[0])
		if err != nil {
			return err
		}
		results, err := c.st.Generator.GeneratePage(ctx, n)
		c.printf("Generated %d panel(s)\n", len(results))
		return err
	case "upload-panel":
		if err := need(rest, 2, "upload-panel <id> <file>"); err != nil {
			return err
		}
		dataURL, err := assets.ReadImageFile(rest[1], c.st.Assets.MaxBytes())
		if err != nil {
			return err
		}
		return c.st.Generator.ManualOverride(ctx, rest[0], dataURL)
	case "asset":
		if err := need(rest, 2, "asset <slot> <file>|--clear"); err != nil {
			return err
		}
		slot, ok := domain.ParseSlot(rest[0])
		if !ok {
			return fmt.Errorf("slot %q: %w", rest[0], assets.ErrUnknownSlot)
		}
		if rest[1] == "--clear" {
			return c.st.Assets.Clear(ctx, slot)
		}
		return c.st.Assets.UploadFile(ctx, slot, rest[1])
	case "assets":
		all := c.st.Assets.All()
		for _, slot := range domain.Slots("") {
			state := "empty"
			if all[slot] != "" {
				state = fmt.Sprintf("%d bytes", len(all[slot]))
			}
			c.printf("%-8s %-9s %s\n", slot, slot.Kind(), state)
		}
		return nil
	case "publish":
		entry, err := c.st.Library.Publish(ctx, m.Snapshot())
		if err != nil {
			return err
		}
		c.printf("Published %s at %s\n", entry.ID, entry.PublishedAt)
		return nil
	case "library":
		c.printf("%s", ui.LibraryText(c.st.Library.Entries()))
		return nil
	case "export":
		return c.export(rest)
	case "ui":
		return c.ui(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (c *cli) meta(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("meta", flag.ContinueOnError)
	fs.SetOutput(c.out)
	title := fs.String("title", "", "project title")
	author := fs.String("author", "", "author")
	style := fs.String("style", "", "visual style")
	gctx := fs.String("context", "", "global story context")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var patch project.MetaPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "author":
			patch.Author = author
		case "style":
			patch.Style = style
		case "context":
			patch.GlobalContext = gctx
		}
	})
	c.st.Model.UpdateMeta(ctx, patch)
	return nil
}

func (c *cli) character(ctx context.Context, args []string) error {
	if err := need(args, 2, "character add|set"); err != nil {
		return err
	}
	switch args[0] {
	case "add":
		personality := strings.Join(args[2:], " ")
		id := c.st.Model.AddCharacter(ctx, domain.Character{Name: args[1], Personality: personality})
		c.printf("Added character %s\n", id)
		return nil
	case "set":
		fs := flag.NewFlagSet("character set", flag.ContinueOnError)
		fs.SetOutput(c.out)
		name := fs.String("name", "", "display name")
		personality := fs.String("personality", "", "personality guide")
		avatar := fs.String("avatar", "", "image file")
		if err := fs.Parse(args[2:]); err != nil {
			return errUsage
		}
		var patch project.CharacterPatch
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "name":
				patch.Name = name
			case "personality":
				patch.Personality = personality
			}
		})
		if *avatar != "" {
			dataURL, err := assets.ReadImageFile(*avatar, c.st.Assets.MaxBytes())
			if err != nil {
				return err
			}
			patch.Avatar = &dataURL
		}
		return c.st.Model.UpdateCharacter(ctx, args[1], patch)
	default:
		return fmt.Errorf("character %s: %w", args[0], errUsage)
	}
}

func (c *cli) export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(c.out)
	format := fs.String("format", export.FormatJSON, "json|cbz|pdf|png")
	outPath := fs.String("out", "", "output file (directory for png)")
	pages := fs.String("pages", "", "comma separated 1-based page numbers")
	entry := fs.String("entry", "", "export a library entry instead of the live project")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	p := c.st.Model.Snapshot()
	if *entry != "" {
		e, ok := c.st.Library.Get(*entry)
		if !ok {
			return fmt.Errorf("library entry %q not found", *entry)
		}
		p = e
	}
	sel, err := parsePages(*pages)
	if err != nil {
		return err
	}
	out := *outPath
	if out == "" {
		out = filepath.Join(c.cfg.Storage.DataDir, "exports", export.FileName(time.Now(), ""))
	}
	opt := export.PageOptions{Pages: sel, Renderer: c.st.Renderer}

	var written []string
	switch strings.ToLower(*format) {
	case export.FormatJSON:
		path, err := export.JSONFile(p, c.st.Assets.All(), out)
		if err != nil {
			return err
		}
		written = append(written, path)
	case export.FormatCBZ:
		path, err := export.CBZ(p, out, opt)
		if err != nil {
			return err
		}
		written = append(written, path)
	case export.FormatPDF:
		path, err := export.PDF(p, out, opt)
		if err != nil {
			return err
		}
		written = append(written, path)
	case export.FormatPNG:
		written, err = export.PNGPages(p, out, opt)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("format %q: %w", *format, errUsage)
	}
	for _, w := range written {
		c.printf("Wrote %s\n", w)
	}
	return nil
}

// parsePages turns "1,3" into zero-based indexes.
func parsePages(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := pageIndex(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (c *cli) ui(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.out)
	skinName := fs.String("skin", "terminal", "terminal|desktop")
	reader := fs.Bool("reader", ui.ParseView(c.cfg.General.DefaultView) == ui.ViewReader, "start in reader view")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	view := ui.ViewEditor
	if *reader {
		view = ui.ViewReader
	}
	skin, err := ui.SkinByName(*skinName, ui.NewTerminal(c.in, c.out, view))
	if err != nil {
		return err
	}
	c.l.Info("starting skin", slog.String("skin", skin.Name()))
	return skin.Run(ctx, c.st)
}

func setKey(cfg config.AppConfig, args []string, stdin io.Reader, out io.Writer) error {
	provider := cfg.Generation.Provider
	if len(args) == 2 {
		provider, args = args[0], args[1:]
	}
	if len(args) != 1 {
		return fmt.Errorf("set-key [provider] <key>|-: %w", errUsage)
	}
	key := args[0]
	if key == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimSpace(line)
	}
	if err := config.SetAPIKey(provider, key); err != nil {
		return fmt.Errorf("store key: %w", err)
	}
	if key == "" {
		_, _ = fmt.Fprintf(out, "Removed %s key\n", provider)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Stored %s key in the keychain\n", provider)
	return nil
}
