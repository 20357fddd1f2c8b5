// Package ui is the desktop front end: a fyne window holding the board,
// its toolbar and the text editor dialog.
package ui

import (
	"context"

	"ClassBoard/internal/capture"
	"ClassBoard/internal/raster"
	"ClassBoard/internal/whiteboard"
	"ClassBoard/pkg/logger"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Options describe the window around a whiteboard.
type Options struct {
	Title     string
	ShareLink string
	ExportDir string
	Logger    logger.Logger

	// Disconnected, when set, closes once the connection to the host is lost.
	Disconnected <-chan struct{}
}

// App is one whiteboard window.
type App struct {
	opts    Options
	wb      *whiteboard.Whiteboard
	surface *raster.Surface
	window  fyne.Window
	board   *BoardWidget
	toolbar *Toolbar
	status  *widget.Label
	log     logger.Logger
}

// NewApp builds the window contents for wb painting onto surface. It must
// run on the main goroutine after a fyne app exists.
func NewApp(a fyne.App, wb *whiteboard.Whiteboard, surface *raster.Surface, opts Options) *App {
	if opts.Title == "" {
		opts.Title = "ClassBoard"
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("ui")
	}
	u := &App{
		opts:    opts,
		wb:      wb,
		surface: surface,
		window:  a.NewWindow(opts.Title),
		board:   NewBoardWidget(wb, surface),
		toolbar: NewToolbar(wb),
		status:  widget.NewLabel("Ready"),
		log:     opts.Logger,
	}
	if opts.ShareLink != "" {
		u.status.SetText("Share: " + opts.ShareLink)
	}
	u.board.OnEditor = u.showEditor
	u.toolbar.OnExport = u.exportBoard

	u.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			wb.CancelText()
		}
	})
	u.window.SetContent(container.NewBorder(u.toolbar.Object(), u.status, nil, nil, u.board))
	u.window.Resize(fyne.NewSize(1024, 768))
	return u
}

// Window returns the top-level window.
func (u *App) Window() fyne.Window {
	return u.window
}

// SetStatus shows text in the status bar. Safe from any goroutine.
func (u *App) SetStatus(text string) {
	fyne.Do(func() {
		u.status.SetText(text)
	})
}

func (u *App) showEditor(ed capture.Editor) {
	entry := widget.NewEntry()
	entry.SetText(ed.Value)
	entry.SetPlaceHolder("Type here")

	title := "Add text"
	if ed.Existing {
		title = "Edit text"
	}
	form := dialog.NewForm(title, "Done", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Text", entry)},
		func(ok bool) {
			if ok {
				u.wb.CommitText(entry.Text)
			} else {
				u.wb.CancelText()
			}
		}, u.window)
	entry.OnSubmitted = func(string) { form.Submit() }
	form.Resize(fyne.NewSize(360, 160))
	form.Show()
	u.window.Canvas().Focus(entry)
}

// Run shows the window and blocks until it closes or ctx ends.
func Run(ctx context.Context, wb *whiteboard.Whiteboard, surface *raster.Surface, opts Options) {
	a := app.NewWithID("io.classboard.desktop")
	u := NewApp(a, wb, surface, opts)
	context.AfterFunc(ctx, func() {
		fyne.Do(a.Quit)
	})
	if opts.Disconnected != nil {
		go func() {
			select {
			case <-opts.Disconnected:
				u.SetStatus("Disconnected from host")
			case <-ctx.Done():
			}
		}()
	}
	u.log.Info(ctx, "window opened", logger.String("title", opts.Title))
	u.window.ShowAndRun()
}
