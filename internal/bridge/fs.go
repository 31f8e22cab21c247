package bridge

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"
)

var pathOnly = Schema{required("path", KindString)}

func (b *Bridge) registerFS() {
	b.handle("fs:readFile", pathOnly, readFile)
	b.handle("fs:writeFile", Schema{
		required("path", KindString),
		required("content", KindString),
	}, writeFile)
	b.handle("fs:exists", pathOnly, exists)
	b.handle("fs:stat", pathOnly, stat)
	b.handle("fs:readDirectory", pathOnly, readDirectory)
	b.handle("fs:watch", pathOnly, b.watch)
	b.handle("fs:unwatch", pathOnly, b.unwatch)
}

// readFile decodes the file as UTF-8; invalid sequences become U+FFFD.
func readFile(_ context.Context, args Args) (map[string]any, error) {
	data, err := os.ReadFile(args.String("path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": strings.ToValidUTF8(string(data), "\uFFFD")}, nil
}

func writeFile(_ context.Context, args Args) (map[string]any, error) {
	if err := os.WriteFile(args.String("path"), []byte(args.String("content")), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

// exists reports false only for a missing path; any other stat error fails.
func exists(_ context.Context, args Args) (map[string]any, error) {
	_, err := os.Stat(args.String("path"))
	switch {
	case err == nil:
		return map[string]any{"exists": true}, nil
	case errors.Is(err, fs.ErrNotExist):
		return map[string]any{"exists": false}, nil
	default:
		return nil, err
	}
}

func stat(_ context.Context, args Args) (map[string]any, error) {
	info, err := os.Stat(args.String("path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"stats": map[string]any{
		"size":        info.Size(),
		"isDirectory": info.IsDir(),
		"isFile":      info.Mode().IsRegular(),
		"mtime":       info.ModTime().UTC().Format(time.RFC3339Nano),
	}}, nil
}

func readDirectory(_ context.Context, args Args) (map[string]any, error) {
	entries, err := os.ReadDir(args.String("path"))
	if err != nil {
		return nil, err
	}
	files := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		files = append(files, map[string]any{
			"name":        e.Name(),
			"isDirectory": e.IsDir(),
			"isFile":      e.Type().IsRegular(),
		})
	}
	return map[string]any{"files": files}, nil
}

func (b *Bridge) watch(_ context.Context, args Args) (map[string]any, error) {
	id, err := b.watcher.Watch(args.String("path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"watchId": id}, nil
}

func (b *Bridge) unwatch(_ context.Context, args Args) (map[string]any, error) {
	return nil, b.watcher.Unwatch(args.String("path"))
}
