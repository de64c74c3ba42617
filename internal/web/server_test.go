package web

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gridstitch/gridstitch/pkg/pipeline"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// newTestServer builds a server over a fresh 2×2 grid of 100×100 tiles
// with configured offsets, so no estimation runs.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			img := image.NewRGBA(image.Rect(0, 0, 100, 100))
			for y := 0; y < 100; y++ {
				for x := 0; x < 100; x++ {
					img.Set(x, y, color.RGBA{uint8(60 * r), uint8(60 * c), 120, 255})
				}
			}
			f, err := os.Create(filepath.Join(dir, fmt.Sprintf("s_Grid[@%d %d].png", r, c)))
			if err != nil {
				t.Fatal(err)
			}
			if err := png.Encode(f, img); err != nil {
				t.Fatal(err)
			}
			f.Close()
		}
	}

	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	srv, err := NewServer(runner, pipeline.Options{
		Path:     dir,
		OffsetDX: 90,
		OffsetDY: 90,
	}, tile.GridParser{}, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, dir
}

func getTiles(t *testing.T, ts *httptest.Server) tilesResponse {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/tiles")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var data tilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatal(err)
	}
	return data
}

func TestTilesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	data := getTiles(t, ts)
	if len(data.Tiles) != 4 {
		t.Fatalf("tiles = %d, want 4", len(data.Tiles))
	}
	if data.MaxRow != 1 || data.MaxCol != 1 {
		t.Errorf("bounds = (%d,%d), want (1,1)", data.MaxRow, data.MaxCol)
	}
	for _, ti := range data.Tiles {
		if !ti.Present || ti.Excluded {
			t.Errorf("tile (%d,%d) state = %+v", ti.Row, ti.Col, ti)
		}
	}
}

func TestTogglePersistsAndReflects(t *testing.T) {
	srv, dir := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/toggle/0/1", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result["excluded"] {
		t.Error("toggle should report the tile as excluded")
	}

	// The file physically moved into the marker directory.
	if _, err := os.Stat(filepath.Join(dir, "skipped", "s_Grid[@0 1].png")); err != nil {
		t.Errorf("tile file not moved: %v", err)
	}

	data := getTiles(t, ts)
	for _, ti := range data.Tiles {
		if ti.Row == 0 && ti.Col == 1 && !ti.Excluded {
			t.Error("tile listing should reflect the exclusion")
		}
	}
}

func TestToggleUnknownPositionFails(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/toggle/7/7", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestMosaicEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/mosaic.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 190 || cfg.Height != 190 {
		t.Errorf("mosaic = %dx%d, want 190x190", cfg.Width, cfg.Height)
	}
}

func TestIndexServed(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		t.Errorf("index status = %d, body %d bytes", resp.StatusCode, len(body))
	}
}
