package levelfile

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/tilecanvas/canvas"
	"github.com/milk9111/tilecanvas/layers"
	"github.com/milk9111/tilecanvas/tileset"
)

type fakeLoader map[string]tileset.Info

func (f fakeLoader) Load(path string) (tileset.Info, error) {
	info, ok := f[path]
	if !ok {
		return tileset.Info{}, fmt.Errorf("open %s: not found", path)
	}
	return info, nil
}

func ref(c, r int) canvas.TileRef { return canvas.TileRef{Col: c, Row: r} }

func TestScanGrid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want [][]canvas.TileRef
	}{
		{
			name: "well_formed",
			in:   `[[[0,0],[1,0]],[[2,3],[-4,5]]]`,
			want: [][]canvas.TileRef{{ref(0, 0), ref(1, 0)}, {ref(2, 3), ref(-4, 5)}},
		},
		{
			name: "whitespace_and_plus_sign",
			in:   "[ [ [ 1 , 2 ] ,\n [+3,\t4] ] ]",
			want: [][]canvas.TileRef{{ref(1, 2), ref(3, 4)}},
		},
		{
			name: "bare_number_is_empty_cell",
			in:   `[[[1,1],7,[2,2]],[[3,3]]]`,
			want: [][]canvas.TileRef{{ref(1, 1), canvas.Empty, ref(2, 2)}, {ref(3, 3)}},
		},
		{
			name: "missing_row_component",
			in:   `[[[5],[6,1]]]`,
			want: [][]canvas.TileRef{{ref(5, 0), ref(6, 1)}},
		},
		{
			name: "empty_pair",
			in:   `[[[],[6,1]]]`,
			want: [][]canvas.TileRef{{canvas.Empty, ref(6, 1)}},
		},
		{
			name: "bad_token_is_zero",
			in:   `[[[x,2],[3,1.5]]]`,
			want: [][]canvas.TileRef{{ref(0, 2), ref(3, 0)}},
		},
		{
			name: "truncated_mid_pair",
			in:   `[[[1,1],[2,2]],[[3,3],[4`,
			want: [][]canvas.TileRef{{ref(1, 1), ref(2, 2)}, {ref(3, 3), ref(4, 0)}},
		},
		{
			name: "truncated_row",
			in:   `[[[1,1]],[`,
			want: [][]canvas.TileRef{{ref(1, 1)}},
		},
		{
			name: "trailing_empty_rows_trimmed",
			in:   `[[[1,1]],[],[]]`,
			want: [][]canvas.TileRef{{ref(1, 1)}},
		},
		{
			name: "stops_at_object_brace",
			in:   `[[[1,1],[2,2]}, "name": "x"`,
			want: [][]canvas.TileRef{{ref(1, 1), ref(2, 2)}},
		},
		{
			name: "empty",
			in:   ``,
			want: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := scanGrid([]byte(c.in))
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("scanGrid(%q) mismatch (-want+got):\n%v", c.in, diff)
			}
		})
	}
}

func TestReadLegacySchema(t *testing.T) {
	doc, err := Read([]byte(`{"tileset":"t.png","tileW":16,"tileH":16,"grid":[[[0,0],[1,0]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Legacy || len(doc.Layers) != 1 {
		t.Fatalf("expected one legacy layer, got %+v", doc)
	}
	want := LayerRecord{
		Name:    "Background",
		Tileset: "t.png",
		TileW:   16,
		TileH:   16,
		Grid:    [][]canvas.TileRef{{ref(0, 0), ref(1, 0)}},
	}
	if diff := cmp.Diff(want, doc.Layers[0]); diff != "" {
		t.Errorf("layer mismatch (-want+got):\n%v", diff)
	}

	s, warnings := BuildStack(doc, fakeLoader{"t.png": {Width: 64, Height: 64}}, BuildOptions{ChunkSize: 64})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if s.Len() != 1 {
		t.Fatalf("expected a single layer stack, got %d", s.Len())
	}
	if got := s.Layer(0).Store.Get(1, 0); got != ref(1, 0) {
		t.Fatalf("cell (1,0) = %v", got)
	}
	if s.Layer(0).Store.CellCount() != 1 {
		t.Fatalf("sentinel cells must not be stored")
	}
}

func TestReadMultiLayer(t *testing.T) {
	src := `{
  "layers": [
    {"name": "ground", "tileset": "a.png", "tileW": 16, "tileH": 16, "grid": [[[1,1]]]},
    {"name": "deco \"x\"", "tileset": "gone.png", "tileW": 8, "tileH": 8, "grid": [[[0,0],[2,2]]]},
    {"grid": [[[3,3]]]}
  ]
}`
	doc, err := Read([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Legacy {
		t.Fatalf("layers key must select the multi-layer schema")
	}
	var names []string
	for _, l := range doc.Layers {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"ground", `deco "x"`, "Layer 2"}, names); diff != "" {
		t.Errorf("names mismatch (-want+got):\n%v", diff)
	}

	loader := fakeLoader{"a.png": {Width: 128, Height: 64}}
	s, warnings := BuildStack(doc, loader, BuildOptions{ChunkSize: 64, TileW: 32, TileH: 32})
	if len(warnings) != 1 {
		t.Fatalf("expected one tileset warning, got %v", warnings)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 layers, got %d", s.Len())
	}
	ground := s.Layer(0).Tileset
	if !ground.Loaded || ground.Cols != 8 || ground.Rows != 4 {
		t.Fatalf("ground tileset %+v", ground)
	}
	deco := s.Layer(1).Tileset
	if deco.Loaded || deco.Path != "gone.png" {
		t.Fatalf("failed tileset should leave layer unbound, got %+v", deco)
	}
	if s.EffectiveTileset(1).Path != "a.png" {
		t.Fatalf("unbound layer should inherit a.png")
	}
	if s.Layer(2).Tileset.TileW != 32 {
		t.Fatalf("missing tile size should default, got %+v", s.Layer(2).Tileset)
	}
	if got := s.Layer(1).Store.Get(1, 0); got != ref(2, 2) {
		t.Fatalf("deco (1,0) = %v", got)
	}
}

func TestReadToleratesMalformedRows(t *testing.T) {
	src := `{"layers":[{"name":"a","grid":[[[1,1],9,[2,2]],[[3,3],[4]],[[5,5]]]}]}`
	doc, err := Read([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	want := [][]canvas.TileRef{
		{ref(1, 1), canvas.Empty, ref(2, 2)},
		{ref(3, 3), ref(4, 0)},
		{ref(5, 5)},
	}
	if diff := cmp.Diff(want, doc.Layers[0].Grid); diff != "" {
		t.Errorf("grid mismatch (-want+got):\n%v", diff)
	}
}

func TestReadTruncatedDocument(t *testing.T) {
	src := `{"layers":[{"name":"a","tileW":16,"grid":[[[1,1],[2,2]],[[3,3]`
	doc, err := Read([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Layers) != 1 {
		t.Fatalf("expected the partial layer, got %d", len(doc.Layers))
	}
	want := [][]canvas.TileRef{{ref(1, 1), ref(2, 2)}, {ref(3, 3)}}
	if diff := cmp.Diff(want, doc.Layers[0].Grid); diff != "" {
		t.Errorf("grid mismatch (-want+got):\n%v", diff)
	}
}

func TestReadFieldTolerance(t *testing.T) {
	doc, err := Read([]byte(`{"tileset": tiles.png, "tileW": "x", "tileH": 16.0, [1], "grid": [[[1,2]]]}`))
	if err != nil {
		t.Fatal(err)
	}
	l := doc.Layers[0]
	if l.Tileset != "tiles.png" || l.TileW != 0 || l.TileH != 16 {
		t.Fatalf("unexpected fields %+v", l)
	}
	if diff := cmp.Diff([][]canvas.TileRef{{ref(1, 2)}}, l.Grid); diff != "" {
		t.Errorf("grid mismatch (-want+got):\n%v", diff)
	}
}

func TestReadNoDocument(t *testing.T) {
	for _, in := range []string{"", "garbage", "[[1,2]]"} {
		if _, err := Read([]byte(in)); !errors.Is(err, ErrNoDocument) {
			t.Fatalf("Read(%q): expected ErrNoDocument, got %v", in, err)
		}
	}
}

func TestEmptyLayersArrayBuildsDefaultLayer(t *testing.T) {
	doc, err := Read([]byte(`{"layers": []}`))
	if err != nil {
		t.Fatal(err)
	}
	s, _ := BuildStack(doc, nil, BuildOptions{})
	if s.Len() != 1 {
		t.Fatalf("stack must never be empty, got %d", s.Len())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := layers.NewStack(8)
	s.Layer(0).Tileset = layers.Tileset{Path: "/home/me/game/assets/tiles/ground.png", TileW: 16, TileH: 16, Cols: 4, Rows: 4, Loaded: true}
	top := s.Append("top", layers.Tileset{})
	s.Layer(0).Store.Set(0, 0, ref(1, 2))
	s.Layer(0).Store.Set(2, 1, ref(3, 3))
	top.Store.Set(1, 1, ref(2, 0))
	// outside the window: kept in memory, not exported
	top.Store.Set(-1, -1, ref(9, 9))
	top.Store.Set(50, 0, ref(9, 9))

	doc := FromStack(s, Window{Cols: 3, Rows: 2})
	data, err := Encode(doc, WriteOptions{AssetMarker: "assets"})
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `"tileset": "assets/tiles/ground.png"`) {
		t.Fatalf("tileset path not rewritten:\n%s", text)
	}
	if !strings.Contains(text, "[[1,2],[0,0],[0,0]]") {
		t.Fatalf("unexpected grid encoding:\n%s", text)
	}

	back, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(back.Layers))
	}
	// the unbound top layer is written with the inherited tileset
	if back.Layers[1].Tileset != "assets/tiles/ground.png" || back.Layers[1].TileW != 16 {
		t.Fatalf("top layer record %+v", back.Layers[1])
	}
	want := [][]canvas.TileRef{
		{ref(0, 0), ref(0, 0), ref(0, 0)},
		{ref(0, 0), ref(2, 0), ref(0, 0)},
	}
	if diff := cmp.Diff(want, back.Layers[1].Grid); diff != "" {
		t.Errorf("top grid mismatch (-want+got):\n%v", diff)
	}

	rebuilt, _ := BuildStack(back, nil, BuildOptions{ChunkSize: 8})
	if rebuilt.Layer(1).Store.CellCount() != 1 {
		t.Fatalf("content outside the window must not be exported")
	}
	if rebuilt.Layer(0).Store.Get(2, 1) != ref(3, 3) {
		t.Fatalf("bottom cell lost in round trip")
	}
}

func TestWriteEmptyDocument(t *testing.T) {
	data, err := Encode(&Document{}, WriteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Legacy || len(doc.Layers) != 0 {
		t.Fatalf("unexpected %+v", doc)
	}
}

func TestAssetRelative(t *testing.T) {
	cases := []struct {
		path, marker, want string
	}{
		{"/opt/game/assets/tiles.png", "assets", "assets/tiles.png"},
		{"/opt/assets/game/assets/a/b.png", "assets", "assets/a/b.png"},
		{"/opt/game/art/tiles.png", "assets", "/opt/game/art/tiles.png"},
		{"assets/tiles.png", "assets", "assets/tiles.png"},
		{"tiles.png", "assets", "tiles.png"},
		{"/opt/game/assets/tiles.png", "", "/opt/game/assets/tiles.png"},
		{"", "assets", ""},
	}
	for _, c := range cases {
		if got := AssetRelative(c.path, c.marker); got != c.want {
			t.Errorf("AssetRelative(%q, %q) = %q, want %q", c.path, c.marker, got, c.want)
		}
	}
}

func TestReadLegacyGrid(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		doc, err := ReadLegacyGrid(strings.NewReader("0 0 1 0\n2 3 0 0\n"), 2, 2)
		if err != nil {
			t.Fatal(err)
		}
		want := [][]canvas.TileRef{{ref(0, 0), ref(1, 0)}, {ref(2, 3), ref(0, 0)}}
		if diff := cmp.Diff(want, doc.Layers[0].Grid); diff != "" {
			t.Errorf("grid mismatch (-want+got):\n%v", diff)
		}
	})
	t.Run("short", func(t *testing.T) {
		doc, err := ReadLegacyGrid(strings.NewReader("1 1 2 2\n3"), 2, 2)
		if !errors.Is(err, ErrInvalidGrid) {
			t.Fatalf("expected ErrInvalidGrid, got %v", err)
		}
		want := [][]canvas.TileRef{{ref(1, 1), ref(2, 2)}}
		if diff := cmp.Diff(want, doc.Layers[0].Grid); diff != "" {
			t.Errorf("grid mismatch (-want+got):\n%v", diff)
		}
	})
	t.Run("bad_token", func(t *testing.T) {
		doc, err := ReadLegacyGrid(strings.NewReader("1 1 x 2"), 2, 1)
		if !errors.Is(err, ErrInvalidGrid) {
			t.Fatalf("expected ErrInvalidGrid, got %v", err)
		}
		if diff := cmp.Diff([][]canvas.TileRef{{ref(1, 1)}}, doc.Layers[0].Grid); diff != "" {
			t.Errorf("grid mismatch (-want+got):\n%v", diff)
		}
	})
}

func TestTimestampName(t *testing.T) {
	ts := time.Date(2025, 8, 9, 18, 35, 40, 0, time.UTC)
	if got := TimestampName(ts); got != "map_20250809_183540.json" {
		t.Fatalf("TimestampName = %q", got)
	}
}
