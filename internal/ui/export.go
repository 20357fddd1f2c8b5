package ui

import (
	"context"
	"time"

	"ClassBoard/internal/export"
	"ClassBoard/pkg/logger"

	"fyne.io/fyne/v2/dialog"
)

// exportBoard writes the current board to a PDF in the export directory.
func (u *App) exportBoard() {
	path := export.FileName(u.opts.ExportDir, time.Now())
	if err := export.PDF(path, u.wb, u.wb.Viewport(), export.WithLogger(u.log.Named("export"))); err != nil {
		u.log.Error(context.Background(), "export failed", logger.String("path", path), logger.Error(err))
		dialog.ShowError(err, u.window)
		return
	}
	u.status.SetText("Exported " + path)
}
