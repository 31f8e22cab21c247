package desktop

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/tokenring-ai/coder-desktop/internal/bridge"
)

// Dialogs shows Wails native dialogs.
type Dialogs struct {
	ctx context.Context
}

func (d *Dialogs) OpenFiles(opts bridge.DialogOptions) ([]string, error) {
	o := openOptions(opts)
	if opts.Has("multiSelections") {
		return runtime.OpenMultipleFilesDialog(d.ctx, o)
	}
	path, err := runtime.OpenFileDialog(d.ctx, o)
	if err != nil || path == "" {
		return nil, err
	}
	return []string{path}, nil
}

func (d *Dialogs) OpenDirectory(opts bridge.DialogOptions) (string, error) {
	return runtime.OpenDirectoryDialog(d.ctx, openOptions(opts))
}

func (d *Dialogs) SaveFile(opts bridge.DialogOptions) (string, error) {
	dir, name := splitDefaultPath(opts.DefaultPath)
	return runtime.SaveFileDialog(d.ctx, runtime.SaveDialogOptions{
		DefaultDirectory:     dir,
		DefaultFilename:      name,
		Title:                opts.Title,
		Filters:              fileFilters(opts.Filters),
		ShowHiddenFiles:      opts.Has("showHiddenFiles"),
		CanCreateDirectories: true,
	})
}

func (d *Dialogs) MessageBox(opts bridge.MessageBoxOptions) (string, error) {
	o := runtime.MessageDialogOptions{
		Type:    dialogType(opts.Type),
		Title:   opts.Title,
		Message: opts.Message,
		Buttons: opts.Buttons,
	}
	if len(opts.Buttons) > 0 {
		o.DefaultButton = opts.Buttons[0]
	}
	return runtime.MessageDialog(d.ctx, o)
}

func openOptions(opts bridge.DialogOptions) runtime.OpenDialogOptions {
	dir, name := splitDefaultPath(opts.DefaultPath)
	return runtime.OpenDialogOptions{
		DefaultDirectory:     dir,
		DefaultFilename:      name,
		Title:                opts.Title,
		Filters:              fileFilters(opts.Filters),
		ShowHiddenFiles:      opts.Has("showHiddenFiles"),
		CanCreateDirectories: opts.Has("createDirectory"),
	}
}

// splitDefaultPath treats a trailing separator or an existing-looking
// directory without extension as a directory.
func splitDefaultPath(p string) (dir, name string) {
	if p == "" {
		return "", ""
	}
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) || filepath.Ext(p) == "" {
		return p, ""
	}
	return filepath.Dir(p), filepath.Base(p)
}

// fileFilters converts extension lists to Wails patterns ("*.md;*.txt").
func fileFilters(filters []bridge.FileFilter) []runtime.FileFilter {
	out := make([]runtime.FileFilter, 0, len(filters))
	for _, f := range filters {
		patterns := make([]string, 0, len(f.Extensions))
		for _, ext := range f.Extensions {
			if ext == "*" {
				patterns = append(patterns, "*.*")
				continue
			}
			patterns = append(patterns, "*."+strings.TrimPrefix(ext, "."))
		}
		out = append(out, runtime.FileFilter{DisplayName: f.Name, Pattern: strings.Join(patterns, ";")})
	}
	return out
}

func dialogType(t string) runtime.DialogType {
	switch t {
	case "warning":
		return runtime.WarningDialog
	case "error":
		return runtime.ErrorDialog
	case "question":
		return runtime.QuestionDialog
	default:
		return runtime.InfoDialog
	}
}
