package levelfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrNoDocument is returned when the input holds no object at all.
var ErrNoDocument = errors.New("no map document found")

// Read decodes a document. The reader is deliberately forgiving: bad numbers
// become zero, malformed cells become empty and a truncated grid keeps the
// cells read before the damage. Only input without any object is an error.
//
// A general purpose JSON decoder would reject such files outright; files
// written by older builds of the editor are known to contain them.
func Read(data []byte) (*Document, error) {
	fields, ok := objectFields(data)
	if !ok {
		return nil, ErrNoDocument
	}

	if raw, ok := fields["layers"]; ok {
		doc := &Document{}
		for i, obj := range splitObjects(raw) {
			lf, _ := objectFields(obj)
			doc.Layers = append(doc.Layers, layerRecord(lf, i))
		}
		return doc, nil
	}

	return &Document{Legacy: true, Layers: []LayerRecord{layerRecord(fields, 0)}}, nil
}

// ReadFrom reads all of r and decodes it.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return Read(data)
}

func layerRecord(f map[string][]byte, i int) LayerRecord {
	rec := LayerRecord{
		Name:    stringValue(f["name"]),
		Tileset: stringValue(f["tileset"]),
		TileW:   intValue(f["tileW"]),
		TileH:   intValue(f["tileH"]),
		Grid:    scanGrid(f["grid"]),
	}
	if rec.Name == "" {
		if i == 0 {
			rec.Name = "Background"
		} else {
			rec.Name = fmt.Sprintf("Layer %d", i)
		}
	}
	return rec
}

// objectFields returns the raw value of each member of the first object in
// src. Values are not decoded. Later duplicates win, as with encoding/json.
func objectFields(src []byte) (map[string][]byte, bool) {
	i := 0
	for i < len(src) && src[i] != '{' {
		i++
	}
	if i == len(src) {
		return nil, false
	}
	i++
	fields := make(map[string][]byte)
	for i < len(src) {
		i = skipSpaceAndCommas(src, i)
		if i >= len(src) || src[i] == '}' {
			break
		}

		var key string
		switch src[i] {
		case '"':
			end := stringEnd(src, i)
			key = stringValue(src[i:end])
			i = end
		case '[', '{':
			// stray value where a key belongs
			i = matchingEnd(src, i)
			continue
		case ']':
			i++
			continue
		default:
			start := i
			for i < len(src) && !strings.ContainsRune(":,}", rune(src[i])) {
				i++
			}
			key = strings.TrimSpace(string(src[start:i]))
		}

		i = skipSpace(src, i)
		if i >= len(src) || src[i] != ':' {
			continue
		}
		i = skipSpace(src, i+1)
		end := valueEnd(src, i)
		fields[key] = src[i:end]
		i = end
		if i < len(src) && src[i] == ']' {
			i++
		}
	}
	return fields, true
}

// splitObjects returns each object element of an array value.
func splitObjects(raw []byte) [][]byte {
	var out [][]byte
	depth := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			i = stringEnd(raw, i) - 1
		case '[':
			depth++
		case ']':
			depth--
		case '{':
			end := matchingEnd(raw, i)
			if depth >= 1 {
				out = append(out, raw[i:end])
			}
			i = end - 1
		}
	}
	return out
}

// valueEnd returns the index of the ',', '}' or ']' that ends the value
// starting at i, or len(src) if the value is unterminated.
func valueEnd(src []byte, i int) int {
	depth := 0
	for i < len(src) {
		switch src[i] {
		case '"':
			i = stringEnd(src, i)
			continue
		case '[', '{':
			depth++
		case ']', '}':
			if depth == 0 {
				return i
			}
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(src)
}

// matchingEnd returns the index just past the bracket closing the one at i.
func matchingEnd(src []byte, i int) int {
	depth := 0
	for i < len(src) {
		switch src[i] {
		case '"':
			i = stringEnd(src, i)
			continue
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return len(src)
}

// stringEnd returns the index just past the closing quote of the string
// starting at src[i].
func stringEnd(src []byte, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(src)
}

func skipSpace(src []byte, i int) int {
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	return i
}

func skipSpaceAndCommas(src []byte, i int) int {
	for i < len(src) && (isSpace(src[i]) || src[i] == ',') {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func stringValue(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return ""
	}
	if s[0] != '"' {
		return s
	}
	var out string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	s = strings.TrimPrefix(s, "\"")
	return strings.TrimSuffix(s, "\"")
}

// intValue parses a number, truncating fractions. Anything unparseable is 0.
func intValue(raw []byte) int {
	s := strings.TrimSpace(string(raw))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt32 && f <= math.MaxInt32 {
		return int(f)
	}
	return 0
}
