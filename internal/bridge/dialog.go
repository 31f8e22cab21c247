package bridge

import (
	"context"
	"slices"
)

// FileFilter restricts a file dialog to extensions, without the leading dot.
type FileFilter struct {
	Name       string
	Extensions []string
}

// DialogOptions is the renderer's dialog option object.
type DialogOptions struct {
	Title       string
	DefaultPath string
	ButtonLabel string
	Filters     []FileFilter
	// Properties carries flags such as "multiSelections" or "showHiddenFiles".
	Properties []string
}

// Has reports whether the property flag is set.
func (o DialogOptions) Has(property string) bool {
	return slices.Contains(o.Properties, property)
}

// MessageBoxOptions describes dialog:showMessageBox.
type MessageBoxOptions struct {
	Type    string // "none", "info", "warning", "error" or "question"
	Title   string
	Message string
	Buttons []string
}

var dialogSchema = Schema{optional("options", KindObject)}

func (b *Bridge) registerDialogs() {
	b.handle("dialog:openFile", dialogSchema, b.openFile)
	b.handle("dialog:openDirectory", dialogSchema, b.openDirectory)
	b.handle("dialog:saveFile", dialogSchema, b.saveFile)
	b.handle("dialog:showMessageBox", Schema{
		required("message", KindString),
		optional("title", KindString),
		optional("type", KindString),
		optional("buttons", KindStringList),
	}, b.showMessageBox)
}

// parseDialogOptions reads the options object; unknown or mistyped keys are
// ignored, as the renderer passes its options straight through.
func parseDialogOptions(args Args) DialogOptions {
	raw, _ := args["options"].(map[string]any)
	o := Args(raw)
	opts := DialogOptions{
		Title:       o.String("title"),
		DefaultPath: o.String("defaultPath"),
		ButtonLabel: o.String("buttonLabel"),
		Properties:  o.Strings("properties"),
	}
	for _, item := range o.List("filters") {
		f, isObj := item.(map[string]any)
		if !isObj {
			continue
		}
		fa := Args(f)
		opts.Filters = append(opts.Filters, FileFilter{
			Name:       fa.String("name"),
			Extensions: fa.Strings("extensions"),
		})
	}
	return opts
}

func (b *Bridge) openFile(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	paths, err := host.Dialogs.OpenFiles(parseDialogOptions(args))
	if err != nil {
		return nil, err
	}
	return selection(paths), nil
}

func (b *Bridge) openDirectory(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	dir, err := host.Dialogs.OpenDirectory(parseDialogOptions(args))
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return selection(nil), nil
	}
	return selection([]string{dir}), nil
}

func (b *Bridge) saveFile(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	path, err := host.Dialogs.SaveFile(parseDialogOptions(args))
	if err != nil {
		return nil, err
	}
	return map[string]any{"canceled": path == "", "filePath": path}, nil
}

func (b *Bridge) showMessageBox(_ context.Context, args Args) (map[string]any, error) {
	host, err := b.currentHost()
	if err != nil {
		return nil, err
	}
	opts := MessageBoxOptions{
		Type:    args.String("type"),
		Title:   args.String("title"),
		Message: args.String("message"),
		Buttons: args.Strings("buttons"),
	}
	if len(opts.Buttons) == 0 {
		opts.Buttons = []string{"OK"}
	}
	clicked, err := host.Dialogs.MessageBox(opts)
	if err != nil {
		return nil, err
	}
	index := slices.Index(opts.Buttons, clicked)
	return map[string]any{"response": index, "button": clicked}, nil
}

func selection(paths []string) map[string]any {
	if paths == nil {
		paths = []string{}
	}
	return map[string]any{"canceled": len(paths) == 0, "filePaths": paths}
}
