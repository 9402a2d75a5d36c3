//go:build fyne && cgo

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
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/assets"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/crash"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/domain"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/events"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/export"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/generation"
	applog "github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/log"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/project"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/render"
	"github.com/SEUB66/BD-GENERATOR-BY-SEUB/internal/version"
)

var imageFilter = fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp"})

// Desktop is the Fyne skin: an editor tab with page list and panel cards, a
// reader tab showing rendered pages, plus assets and library tabs.
type Desktop struct{}

func (Desktop) Name() string { return "desktop" }

// Run blocks until the window is closed.
func (Desktop) Run(ctx context.Context, st *Station) error {
	l := applog.WithComponent("ui")
	l.Info("starting desktop UI")
	defer crash.Recover(st.DataDir, st.Model)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fyneApp := app.NewWithID("comicstation")
	w := fyneApp.NewWindow("Comic Station")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 860)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	d := &desk{
		ctx:     ctx,
		st:      st,
		w:       w,
		l:       l,
		dec:     render.NewDecoder(0),
		status:  widget.NewLabel("Ready"),
		cards:   map[string]*panelCard{},
		reader:  NewPageView(),
		current: 0,
	}
	if d.st.Renderer == nil {
		d.st.Renderer = render.NewRenderer(d.dec, render.DefaultOptions())
	}

	tabs := container.NewAppTabs(
		container.NewTabItem("Editor", d.buildEditor()),
		container.NewTabItem("Reader", d.buildReader()),
		container.NewTabItem("Assets", d.buildAssets()),
		container.NewTabItem("Library", d.buildLibrary()),
	)
	if ParseView(prefs.StringWithFallback("view.default", "")) == ViewReader {
		tabs.SelectIndex(1)
	}
	tabs.OnSelected = func(ti *container.TabItem) {
		if ti.Text == "Reader" {
			d.refreshReader()
		}
	}
	w.SetContent(container.NewBorder(nil, d.status, nil, nil, tabs))
	w.SetMainMenu(d.buildMenu())

	undoSC := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redoSC := &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}
	w.Canvas().AddShortcut(undoSC, func(fyne.Shortcut) { d.travel(false) })
	w.Canvas().AddShortcut(redoSC, func(fyne.Shortcut) { d.travel(true) })

	evs, unsubscribe := st.Bus.Subscribe()
	go func() {
		for e := range evs {
			fyne.Do(func() { d.onEvent(e) })
		}
	}()

	w.SetCloseIntercept(func() {
		d.flushEdits()
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	d.refreshAll()
	w.ShowAndRun()

	unsubscribe()
	st.Generator.Wait()
	return nil
}

type desk struct {
	ctx context.Context
	st  *Station
	w   fyne.Window
	l   *slog.Logger
	dec *render.Decoder

	status  *widget.Label
	current int // selected page index

	pagesList *widget.List
	cardsBox  *fyne.Container
	cards     map[string]*panelCard
	cardOrder []string

	reader     *PageView
	readerPage int
	readerSrc  *domain.Project // library entry shown instead of the live project

	libList *widget.List
	slotBox *fyne.Container
}

type panelCard struct {
	id     string
	root   fyne.CanvasObject
	img    *canvas.Image
	state  *widget.Label
	desc   *widget.Entry
	instr  *widget.Entry
	genBtn *widget.Button
	refBtn *widget.Button
	edits  *settler
}

// descSettle is how long a description must stay unchanged before it is written.
const descSettle = 400 * time.Millisecond

// flushEdits writes descriptions that are still settling.
func (d *desk) flushEdits() {
	for _, c := range d.cards {
		c.edits.Flush()
	}
}

func (d *desk) setStatus(format string, args ...any) {
	d.status.SetText(fmt.Sprintf(format, args...))
}

func (d *desk) showErr(err error) {
	if err != nil {
		dialog.ShowError(err, d.w)
	}
}

func (d *desk) onEvent(e events.Event) {
	switch e.Type {
	case events.GenerationFailed:
		d.setStatus("Panel %s failed: %s", e.PanelID, e.Message)
		dialog.ShowError(fmt.Errorf("panel %s: %s", e.PanelID, e.Message), d.w)
	case events.GenerationSucceeded:
		d.setStatus("Panel %s ready", e.PanelID)
	case events.UploadRejected:
		dialog.ShowInformation("Upload", e.Message, d.w)
	case events.Published:
		d.setStatus("%s", e.Message)
		d.libList.Refresh()
	case events.AssetsChanged:
		d.refreshAssets()
		return
	}
	d.refreshAll()
}

func (d *desk) travel(redo bool) {
	d.flushEdits()
	step, verb := d.st.Model.Undo, "Undo"
	if redo {
		step, verb = d.st.Model.Redo, "Redo"
	}
	if label, ok := step(d.ctx); ok {
		d.setStatus("%s: %s", verb, label)
		d.refreshAll()
	}
}

// ---- editor ----

func (d *desk) buildEditor() fyne.CanvasObject {
	d.pagesList = widget.NewList(
		func() int { return len(d.st.Model.Snapshot().Pages) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			p := d.st.Model.Snapshot()
			if int(i) < len(p.Pages) {
				o.(*widget.Label).SetText(pageLabel(p.Pages[i]))
			}
		},
	)
	d.pagesList.OnSelected = func(id widget.ListItemID) {
		d.current = int(id)
		d.refreshCards(true)
	}
	addPage := widget.NewButton("Add Page", func() {
		d.current = d.st.Model.AddPage(d.ctx)
		d.refreshAll()
	})
	delPage := widget.NewButton("Delete Page", func() {
		dialog.ShowConfirm("Delete Page", fmt.Sprintf("Delete page %d and all its panels?", d.current+1), func(ok bool) {
			if !ok {
				return
			}
			d.showErr(d.st.Model.DeletePage(d.ctx, d.current))
			if d.current > 0 {
				d.current--
			}
			d.refreshAll()
		}, d.w)
	})
	titleEntry := widget.NewEntry()
	titleEntry.SetPlaceHolder("Page title")
	titleEntry.OnSubmitted = func(s string) {
		d.showErr(d.st.Model.UpdatePage(d.ctx, d.current, project.PagePatch{Title: project.Ptr(s)}))
		d.pagesList.Refresh()
	}
	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Pages"), widget.NewSeparator()),
		container.NewVBox(titleEntry, container.NewGridWithColumns(2, addPage, delPage)),
		nil, nil, d.pagesList)

	addPanel := widget.NewButton("Add Panel", func() {
		if _, err := d.st.Model.AddPanel(d.ctx, d.current); err != nil {
			d.showErr(err)
		}
		d.refreshCards(true)
	})
	genPage := widget.NewButton("Generate Page", func() {
		d.flushEdits()
		page := d.current
		go func() {
			_, err := d.st.Generator.GeneratePage(d.ctx, page)
			if err != nil {
				d.l.Warn("page generation finished with errors", slog.Any("err", err))
			}
		}()
	})
	d.cardsBox = container.NewGridWrap(fyne.NewSize(340, 520))
	center := container.NewBorder(container.NewHBox(addPanel, genPage), nil, nil, nil, container.NewVScroll(d.cardsBox))
	split := container.NewHSplit(left, center)
	split.Offset = 0.2
	return split
}

func (d *desk) newCard(pnl domain.Panel) *panelCard {
	c := &panelCard{id: pnl.ID}
	c.img = canvas.NewImageFromImage(nil)
	c.img.FillMode = canvas.ImageFillContain
	c.img.SetMinSize(fyne.NewSize(320, 320))
	placeholder := canvas.NewRectangle(color.RGBA{R: 226, G: 226, B: 226, A: 255})
	c.state = widget.NewLabel("")
	c.desc = widget.NewMultiLineEntry()
	c.desc.Wrapping = fyne.TextWrapWord
	c.desc.SetText(pnl.Description)
	c.edits = newSettler(descSettle, fyne.Do, func() {
		if cur, ok := d.st.Model.Panel(c.id); ok && cur.Description == c.desc.Text {
			return
		}
		d.showErr(d.st.Model.UpdatePanel(d.ctx, c.id, project.PanelPatch{Description: project.Ptr(c.desc.Text)}))
	})
	c.desc.OnChanged = func(string) { c.edits.Touch() }
	c.instr = widget.NewEntry()
	c.instr.SetPlaceHolder("Refine instruction")
	c.instr.SetText(d.st.Generator.Instruction(pnl.ID))
	c.instr.OnChanged = func(s string) { d.st.Generator.SetInstruction(c.id, s) }

	c.genBtn = widget.NewButton("Generate", func() { d.start(c.id, generation.ModeNew, "") })
	c.refBtn = widget.NewButton("Refine", func() { d.start(c.id, generation.ModeRefine, c.instr.Text) })
	upload := widget.NewButton("Upload", func() { d.uploadPanel(c.id) })
	del := widget.NewButton("Delete", func() {
		d.showErr(d.st.Model.DeletePanel(d.ctx, c.id))
		d.refreshCards(true)
	})
	c.root = container.NewBorder(
		container.NewStack(placeholder, c.img),
		container.NewVBox(c.instr, container.NewGridWithColumns(4, c.genBtn, c.refBtn, upload, del)),
		nil, nil,
		container.NewBorder(c.state, nil, nil, nil, c.desc),
	)
	return c
}

func (d *desk) updateCard(c *panelCard, pnl domain.Panel) {
	c.state.SetText(fmt.Sprintf("%s  %s", pnl.ID, statusOf(pnl)))
	busy := pnl.Status == domain.StatusGenerating
	if busy {
		c.genBtn.Disable()
		c.refBtn.Disable()
	} else {
		c.genBtn.Enable()
		c.refBtn.Enable()
		if pnl.ImageURL == "" {
			c.refBtn.Disable()
		}
	}
	if d.w.Canvas().Focused() != c.desc && !c.edits.Pending() && c.desc.Text != pnl.Description {
		c.desc.SetText(pnl.Description)
	}
	var img image.Image
	if pnl.ImageURL != "" {
		if decoded, err := d.dec.Decode(pnl.ImageURL); err == nil {
			img = decoded
		}
	}
	if c.img.Image != img {
		c.img.Image = img
		c.img.Refresh()
	}
}

// refreshCards updates panel cards for the current page. Cards are rebuilt only
// when the panel set changed so typing keeps focus.
func (d *desk) refreshCards(force bool) {
	p := d.st.Model.Snapshot()
	if d.current >= len(p.Pages) {
		d.current = len(p.Pages) - 1
	}
	var panels []domain.Panel
	if d.current >= 0 {
		panels = p.Pages[d.current].Panels
	}
	ids := make([]string, len(panels))
	for i, pnl := range panels {
		ids[i] = pnl.ID
	}
	if force || !sameIDs(ids, d.cardOrder) {
		d.flushEdits()
		d.cardsBox.Objects = nil
		d.cards = map[string]*panelCard{}
		for _, pnl := range panels {
			c := d.newCard(pnl)
			d.cards[pnl.ID] = c
			d.cardsBox.Add(c.root)
		}
		d.cardOrder = ids
	}
	for _, pnl := range panels {
		d.updateCard(d.cards[pnl.ID], pnl)
	}
	d.cardsBox.Refresh()
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (d *desk) start(id string, mode generation.Mode, instruction string) {
	d.flushEdits()
	if err := d.st.Generator.Start(d.ctx, id, mode, instruction); err != nil {
		d.showErr(err)
		return
	}
	d.setStatus("Panel %s generating…", id)
	d.refreshCards(false)
}

func (d *desk) uploadPanel(id string) {
	open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil {
			d.showErr(err)
			return
		}
		if ur == nil {
			return
		}
		path := ur.URI().Path()
		_ = ur.Close()
		dataURL, rerr := assets.ReadImageFile(path, d.st.Assets.MaxBytes())
		if rerr != nil {
			d.showErr(rerr)
			return
		}
		d.showErr(d.st.Generator.ManualOverride(d.ctx, id, dataURL))
		d.refreshCards(false)
	}, d.w)
	open.SetFilter(imageFilter)
	open.Show()
}

// ---- reader ----

func (d *desk) buildReader() fyne.CanvasObject {
	prev := widget.NewButton("◀", func() {
		if d.readerPage > 0 {
			d.readerPage--
			d.refreshReader()
		}
	})
	next := widget.NewButton("▶", func() {
		d.readerPage++
		d.refreshReader()
	})
	live := widget.NewButton("Live Project", func() {
		d.readerSrc = nil
		d.readerPage = 0
		d.refreshReader()
	})
	return container.NewBorder(container.NewHBox(prev, next, live), nil, nil, nil, d.reader)
}

func (d *desk) refreshReader() {
	p := d.st.Model.Snapshot()
	if d.readerSrc != nil {
		p = *d.readerSrc
	}
	if len(p.Pages) == 0 {
		d.reader.SetImage(nil)
		return
	}
	if d.readerPage >= len(p.Pages) {
		d.readerPage = len(p.Pages) - 1
	}
	d.reader.SetImage(d.st.Renderer.RenderPage(p.Pages[d.readerPage]))
}

// ---- assets ----

func (d *desk) buildAssets() fyne.CanvasObject {
	d.slotBox = container.NewGridWrap(fyne.NewSize(180, 230))
	d.refreshAssets()
	return container.NewVScroll(d.slotBox)
}

func (d *desk) refreshAssets() {
	all := d.st.Assets.All()
	d.slotBox.Objects = nil
	for _, slot := range domain.Slots("") {
		slot := slot
		img := canvas.NewImageFromImage(nil)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(160, 160))
		if u := all[slot]; u != "" {
			if decoded, err := d.dec.Decode(u); err == nil {
				img.Image = decoded
			}
		}
		upload := widget.NewButton("Upload", func() {
			open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
				if err != nil || ur == nil {
					d.showErr(err)
					return
				}
				path := ur.URI().Path()
				_ = ur.Close()
				if uerr := d.st.Assets.UploadFile(d.ctx, slot, path); uerr == nil {
					d.setStatus("Uploaded %s", slot)
				}
			}, d.w)
			open.SetFilter(imageFilter)
			open.Show()
		})
		clearBtn := widget.NewButton("Clear", func() { d.showErr(d.st.Assets.Clear(d.ctx, slot)) })
		label := widget.NewLabel(fmt.Sprintf("%s (%s)", slot, slot.Kind()))
		d.slotBox.Add(container.NewBorder(label, container.NewGridWithColumns(2, upload, clearBtn), nil, nil,
			container.NewStack(canvas.NewRectangle(color.RGBA{R: 226, G: 226, B: 226, A: 255}), img)))
	}
	d.slotBox.Refresh()
}

// ---- library ----

func (d *desk) buildLibrary() fyne.CanvasObject {
	d.libList = widget.NewList(
		func() int { return len(d.st.Library.Entries()) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			lib := d.st.Library.Entries()
			if int(i) < len(lib) {
				e := lib[i]
				o.(*widget.Label).SetText(fmt.Sprintf("%s  %s  (%d pages)", e.PublishedAt, e.Title, len(e.Pages)))
			}
		},
	)
	d.libList.OnSelected = func(id widget.ListItemID) {
		lib := d.st.Library.Entries()
		if int(id) < len(lib) {
			e := lib[id]
			d.readerSrc = &e
			d.readerPage = 0
			d.refreshReader()
			d.setStatus("Reader shows %s (%s)", e.Title, e.ID)
		}
	}
	publish := widget.NewButton("Publish Current Project", func() {
		d.flushEdits()
		if _, err := d.st.Library.Publish(d.ctx, d.st.Model.Snapshot()); err != nil {
			d.showErr(err)
		}
	})
	return container.NewBorder(publish, nil, nil, nil, d.libList)
}

// ---- menu ----

func (d *desk) buildMenu() *fyne.MainMenu {
	exportItem := func(label string, format string) *fyne.MenuItem {
		return fyne.NewMenuItem(label, func() { d.export(format) })
	}
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Project Settings…", d.editMeta),
		fyne.NewMenuItemSeparator(),
		exportItem("Export JSON", export.FormatJSON),
		exportItem("Export CBZ", export.FormatCBZ),
		exportItem("Export PDF", export.FormatPDF),
	)
	undoItem := fyne.NewMenuItem("Undo", func() { d.travel(false) })
	redoItem := fyne.NewMenuItem("Redo", func() { d.travel(true) })
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItem("Characters…", d.editCharacters))
	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About Comic Station", func() {
		dialog.ShowInformation("About", "Comic Station "+version.String(), d.w)
	}))
	return fyne.NewMainMenu(fileMenu, editMenu, aboutMenu)
}

func (d *desk) export(format string) {
	d.flushEdits()
	p := d.st.Model.Snapshot()
	name := export.FileName(time.Now(), "")
	out, err := export.Batch(p, d.st.Assets.All(), export.BatchOptions{
		Formats: []string{format},
		Root:    d.st.DataDir,
		OutDir:  "desktop",
		Name:    name,
		Page:    export.PageOptions{Renderer: d.st.Renderer},
	})
	if err != nil {
		d.showErr(err)
		return
	}
	if len(out) > 0 {
		dialog.ShowInformation("Export", "Written to "+filepath.Dir(out[0]), d.w)
	}
}

func (d *desk) editMeta() {
	p := d.st.Model.Snapshot()
	title, author := widget.NewEntry(), widget.NewEntry()
	style, ctxEntry := widget.NewMultiLineEntry(), widget.NewMultiLineEntry()
	title.SetText(p.Title)
	author.SetText(p.Author)
	style.SetText(p.Style)
	ctxEntry.SetText(p.GlobalContext)
	dialog.ShowForm("Project Settings", "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Title", title),
		widget.NewFormItem("Author", author),
		widget.NewFormItem("Style", style),
		widget.NewFormItem("Context", ctxEntry),
	}, func(ok bool) {
		if !ok {
			return
		}
		d.st.Model.UpdateMeta(d.ctx, project.MetaPatch{
			Title:         project.Ptr(title.Text),
			Author:        project.Ptr(author.Text),
			Style:         project.Ptr(style.Text),
			GlobalContext: project.Ptr(ctxEntry.Text),
		})
	}, d.w)
}

func (d *desk) editCharacters() {
	p := d.st.Model.Snapshot()
	items := make([]*widget.FormItem, 0, len(p.Characters)+1)
	type row struct {
		id          string
		name, descr *widget.Entry
	}
	rows := make([]row, 0, len(p.Characters))
	for _, c := range p.Characters {
		name, descr := widget.NewEntry(), widget.NewEntry()
		name.SetText(c.Name)
		descr.SetText(c.Personality)
		rows = append(rows, row{id: c.ID, name: name, descr: descr})
		items = append(items, widget.NewFormItem(c.ID, container.NewGridWithColumns(2, name, descr)))
	}
	newName := widget.NewEntry()
	newName.SetPlaceHolder("New character name")
	items = append(items, widget.NewFormItem("add", newName))
	dialog.ShowForm("Characters", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		for _, r := range rows {
			d.showErr(d.st.Model.UpdateCharacter(d.ctx, r.id, project.CharacterPatch{
				Name:        project.Ptr(r.name.Text),
				Personality: project.Ptr(r.descr.Text),
			}))
		}
		if newName.Text != "" {
			d.st.Model.AddCharacter(d.ctx, domain.Character{Name: newName.Text})
		}
	}, d.w)
}

func (d *desk) refreshAll() {
	d.pagesList.Refresh()
	d.refreshCards(false)
	d.refreshReader()
}

func pageLabel(pg domain.Page) string {
	return fmt.Sprintf("%02d  %s  (%d)", pg.PageNumber, pg.Title, len(pg.Panels))
}

// ---- page view ----

// PageView shows one rendered page, centered, with wheel zoom.
type PageView struct {
	widget.BaseWidget
	img  image.Image
	zoom float32
}

func NewPageView() *PageView {
	pv := &PageView{zoom: 0.5}
	pv.ExtendBaseWidget(pv)
	return pv
}

// SetImage replaces the displayed page. A nil image shows an empty backdrop.
func (p *PageView) SetImage(img image.Image) {
	p.img = img
	p.Refresh()
}

func (p *PageView) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (p *PageView) Scrolled(e *fyne.ScrollEvent) {
	p.zoom += float32(e.Scrolled.DY) * 0.05
	if p.zoom < 0.1 {
		p.zoom = 0.1
	}
	if p.zoom > 4.0 {
		p.zoom = 4.0
	}
	p.Refresh()
}

func (p *PageView) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	page := canvas.NewImageFromImage(p.img)
	page.FillMode = canvas.ImageFillStretch
	r := &pageViewRenderer{pv: p, bg: bg, page: page}
	r.objects = []fyne.CanvasObject{bg, page}
	return r
}

type pageViewRenderer struct {
	pv      *PageView
	bg      *canvas.Rectangle
	page    *canvas.Image
	objects []fyne.CanvasObject
}

func (r *pageViewRenderer) Destroy()                     {}
func (r *pageViewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *pageViewRenderer) MinSize() fyne.Size           { return r.pv.PreferredSize() }

func (r *pageViewRenderer) Refresh() {
	r.page.Image = r.pv.img
	r.Layout(r.pv.Size())
	canvas.Refresh(r.pv)
}

func (r *pageViewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	if r.pv.img == nil {
		r.page.Hide()
		return
	}
	r.page.Show()
	b := r.pv.img.Bounds()
	w := float32(b.Dx()) * r.pv.zoom
	h := float32(b.Dy()) * r.pv.zoom
	r.page.Resize(fyne.NewSize(w, h))
	r.page.Move(fyne.NewPos(size.Width/2-w/2, size.Height/2-h/2))
}
