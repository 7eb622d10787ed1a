package pyramid

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestMaxLevel(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{1, 1, 0},
		{2, 1, 1},
		{3, 2, 2},
		{256, 100, 8},
		{257, 100, 9},
		{930, 620, 10},
	}
	for _, tt := range tests {
		if got := MaxLevel(tt.w, tt.h); got != tt.want {
			t.Errorf("MaxLevel(%d,%d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestLevelSize(t *testing.T) {
	tests := []struct {
		level, w, h int
	}{
		{10, 930, 620},
		{9, 465, 310},
		{8, 233, 155},
		{1, 2, 2},
		{0, 1, 1},
	}
	for _, tt := range tests {
		w, h := LevelSize(930, 620, tt.level)
		if w != tt.w || h != tt.h {
			t.Errorf("LevelSize(930,620,%d) = %dx%d, want %dx%d", tt.level, w, h, tt.w, tt.h)
		}
	}
}

func TestTileRect(t *testing.T) {
	m := &Manifest{TileSize: 254, Overlap: 1, Size: Size{Width: 600, Height: 300}}
	level := m.MaxLevel()
	cols, rows := m.TileCount(level)
	if cols != 3 || rows != 2 {
		t.Fatalf("TileCount = %dx%d, want 3x2", cols, rows)
	}
	tests := []struct {
		col, row int
		want     image.Rectangle
	}{
		{0, 0, image.Rect(0, 0, 255, 255)},
		{1, 0, image.Rect(253, 0, 509, 255)},
		{2, 1, image.Rect(507, 253, 600, 300)},
	}
	for _, tt := range tests {
		if got := m.TileRect(level, tt.col, tt.row); got != tt.want {
			t.Errorf("TileRect(%d,%d) = %v, want %v", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(300, 200, color.NRGBA{10, 20, 30, 255})

	e := NewEmitter()
	e.TileSize = 128
	var levels []int
	e.Progress = func(level, _ int) { levels = append(levels, level) }

	m, err := e.Create(context.Background(), img, dir, "allsquares")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.MaxLevel() != 9 || len(levels) != 10 {
		t.Fatalf("MaxLevel = %d, levels written = %v", m.MaxLevel(), levels)
	}

	manifestPath, tilesDir := Paths(dir, "allsquares")
	f, err := os.Open(manifestPath)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	defer f.Close()
	got, err := ReadManifest(f)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.Size != (Size{300, 200}) || got.TileSize != 128 || got.Overlap != 1 || got.Format != "jpg" {
		t.Errorf("manifest = %+v", got)
	}

	for level := 0; level <= m.MaxLevel(); level++ {
		cols, rows := m.TileCount(level)
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				p := filepath.Join(tilesDir, fmt.Sprint(level), fmt.Sprintf("%d_%d.jpg", c, r))
				if _, err := os.Stat(p); err != nil {
					t.Errorf("missing tile %s", p)
				}
			}
		}
	}

	tile, err := imaging.Open(filepath.Join(tilesDir, "9", "1_1.jpg"))
	if err != nil {
		t.Fatalf("open tile: %v", err)
	}
	want := m.TileRect(9, 1, 1)
	if tile.Bounds().Dx() != want.Dx() || tile.Bounds().Dy() != want.Dy() {
		t.Errorf("tile size = %v, want %v", tile.Bounds().Size(), want.Size())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("output dir should hold only the manifest and tiles, got %d entries", len(entries))
	}
}

func TestCreateRejectsBadSettings(t *testing.T) {
	img := imaging.New(4, 4, color.Black)
	tests := []*Emitter{
		{TileSize: 0, Format: "jpg"},
		{TileSize: 8, Overlap: 8, Format: "jpg"},
		{TileSize: 8, Format: "bmpx"},
	}
	for _, e := range tests {
		dir := t.TempDir()
		if _, err := e.Create(context.Background(), img, dir, "x"); err == nil {
			t.Errorf("Create with %+v should fail", e)
		}
		if _, err := os.Stat(filepath.Join(dir, "x.dzi")); !os.IsNotExist(err) {
			t.Errorf("failed Create must not write a manifest")
		}
	}
}

func TestCreateCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEmitter().Create(ctx, imaging.New(8, 8, color.Black), dir, "x"); err == nil {
		t.Fatal("cancelled Create should fail")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cancelled Create left %d entries", len(entries))
	}
}
