package levelfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteOptions control document output.
type WriteOptions struct {
	// AssetMarker is the directory name that marks the asset root inside
	// absolute tileset paths, e.g. "assets".
	AssetMarker string
}

// Write encodes doc. Grid rows are written one per line so files stay
// readable and diff well.
func Write(w io.Writer, doc *Document, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("{\n  \"layers\": [")
	for i, rec := range doc.Layers {
		if i > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n    {\n")
		writeField(bw, "name", quote(rec.Name))
		writeField(bw, "tileset", quote(AssetRelative(rec.Tileset, opts.AssetMarker)))
		writeField(bw, "tileW", strconv.Itoa(rec.TileW))
		writeField(bw, "tileH", strconv.Itoa(rec.TileH))
		bw.WriteString("      \"grid\": [")
		for y, row := range rec.Grid {
			if y > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n        [")
			for x, t := range row {
				if x > 0 {
					bw.WriteByte(',')
				}
				bw.WriteByte('[')
				bw.WriteString(strconv.Itoa(t.Col))
				bw.WriteByte(',')
				bw.WriteString(strconv.Itoa(t.Row))
				bw.WriteByte(']')
			}
			bw.WriteString("]")
		}
		if len(rec.Grid) > 0 {
			bw.WriteString("\n      ")
		}
		bw.WriteString("]\n    }")
	}
	if len(doc.Layers) > 0 {
		bw.WriteString("\n  ")
	}
	bw.WriteString("]\n}\n")
	return bw.Flush()
}

// Encode returns the encoded document.
func Encode(doc *Document, opts WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeField(bw *bufio.Writer, key, value string) {
	bw.WriteString("      \"")
	bw.WriteString(key)
	bw.WriteString("\": ")
	bw.WriteString(value)
	bw.WriteString(",\n")
}

func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

// AssetRelative rewrites an absolute path containing /<marker>/ to
// "<marker>/rest". Other paths are returned with forward slashes.
func AssetRelative(path, marker string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if marker == "" || !(filepath.IsAbs(path) || strings.HasPrefix(s, "/")) {
		return s
	}
	seg := "/" + marker + "/"
	if idx := strings.LastIndex(s, seg); idx >= 0 {
		return marker + "/" + s[idx+len(seg):]
	}
	return s
}
