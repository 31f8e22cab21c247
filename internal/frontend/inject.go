package frontend

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// maxPageSize bounds how much of an HTML page is buffered for rewriting.
const maxPageSize = 16 << 20

// bridgeScripts are the Wails runtime, the IPC binding and the renderer API,
// in load order.
var bridgeScripts = []string{"/wails/ipc.js", "/wails/runtime.js", "/bridge.js"}

func scriptTags() []byte {
	var b bytes.Buffer
	for _, src := range bridgeScripts {
		fmt.Fprintf(&b, `<script src="%s"></script>`, src)
	}
	return b.Bytes()
}

// injectBridge rewrites proxied HTML documents so they load the bridge like the
// embedded index page does. Other responses pass through untouched, compressed
// or not.
func injectBridge(resp *http.Response) error {
	if !isHTML(resp.Header.Get("Content-Type")) || resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := decodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to decode page: %w", err)
	}

	page := insertScripts(body, scriptTags())
	resp.Body = io.NopCloser(bytes.NewReader(page))
	resp.ContentLength = int64(len(page))
	resp.Header.Set("Content-Length", strconv.Itoa(len(page)))
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("ETag")
	return nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}

func decodeBody(encoding string, body io.Reader) ([]byte, error) {
	var r io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		r = body
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "deflate":
		zr, err := zlib.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(body)
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxPageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPageSize {
		return nil, fmt.Errorf("page larger than %d bytes", maxPageSize)
	}
	return data, nil
}

// insertScripts places tags at the start of <head>. Without a head they go
// after the doctype, so the page keeps standards mode, or at the very start.
func insertScripts(page, tags []byte) []byte {
	lower := lowerASCII(page)
	at := headEnd(lower)
	if at == 0 {
		at = doctypeEnd(lower)
	}
	out := make([]byte, 0, len(page)+len(tags))
	out = append(out, page[:at]...)
	out = append(out, tags...)
	return append(out, page[at:]...)
}

// headEnd returns the offset just past the <head ...> tag, or 0.
func headEnd(lower []byte) int {
	for off := 0; ; {
		i := bytes.Index(lower[off:], []byte("<head"))
		if i < 0 {
			return 0
		}
		i += off
		rest := lower[i+len("<head"):]
		if len(rest) > 0 && (rest[0] == '>' || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r') {
			if end := bytes.IndexByte(rest, '>'); end >= 0 {
				return i + len("<head") + end + 1
			}
			return 0
		}
		off = i + len("<head")
	}
}

// doctypeEnd returns the offset just past a leading <!doctype ...>, or 0.
func doctypeEnd(lower []byte) int {
	start := len(lower) - len(bytes.TrimLeft(lower, "\ufeff \t\r\n"))
	if !bytes.HasPrefix(lower[start:], []byte("<!doctype")) {
		return 0
	}
	end := bytes.IndexByte(lower[start:], '>')
	if end < 0 {
		return 0
	}
	return start + end + 1
}

func lowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
