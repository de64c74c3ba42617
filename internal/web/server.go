// Package web serves a browser preview of the mosaic with clickable tile
// toggling, backed by the same exclusion store as the select command.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gridstitch/gridstitch/pkg/exclusion"
	"github.com/gridstitch/gridstitch/pkg/pipeline"
	"github.com/gridstitch/gridstitch/pkg/tile"
)

// Server renders the mosaic preview and persists tile toggles.
//
// Toggles move files through the exclusion store exactly like the select
// command, so the browser and terminal workflows stay interchangeable.
// All handlers share one mutex: composition and file moves must never
// interleave.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	parser tile.Parser
	logger *log.Logger

	mu    sync.Mutex
	store *exclusion.Store
}

// NewServer creates a preview server for the dataset described by opts.
func NewServer(runner *pipeline.Runner, opts pipeline.Options, parser tile.Parser, logger *log.Logger) (*Server, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	store, err := exclusion.Load(opts.Path, parser, exclusion.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	// The preview never clobbers the dataset's real output.
	opts.Output = filepath.Join(os.TempDir(), fmt.Sprintf("gridstitch-preview-%d.png", os.Getpid()))
	opts.Derivative = false
	opts.Points = false
	return &Server{
		runner: runner,
		opts:   opts,
		parser: parser,
		logger: logger,
		store:  store,
	}, nil
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/mosaic.png", s.handleMosaic)
	r.Get("/api/tiles", s.handleTiles)
	r.Post("/api/toggle/{row}/{col}", s.handleToggle)

	return r
}

// tileState is one grid cell in the /api/tiles response.
type tileState struct {
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Present  bool `json:"present"`
	Excluded bool `json:"excluded"`
}

// tilesResponse is the /api/tiles payload.
type tilesResponse struct {
	MinRow int         `json:"min_row"`
	MaxRow int         `json:"max_row"`
	MinCol int         `json:"min_col"`
	MaxCol int         `json:"max_col"`
	Tiles  []tileState `json:"tiles"`
}

func (s *Server) handleTiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.buildCatalog()
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	resp := tilesResponse{}
	seen := make(map[tile.Position]bool)
	first := true
	grow := func(p tile.Position) {
		if first {
			resp.MinRow, resp.MaxRow, resp.MinCol, resp.MaxCol = p.Row, p.Row, p.Col, p.Col
			first = false
			return
		}
		resp.MinRow = min(resp.MinRow, p.Row)
		resp.MaxRow = max(resp.MaxRow, p.Row)
		resp.MinCol = min(resp.MinCol, p.Col)
		resp.MaxCol = max(resp.MaxCol, p.Col)
	}

	if catalog != nil {
		for _, t := range catalog.Tiles() {
			grow(t.Position)
			seen[t.Position] = true
			resp.Tiles = append(resp.Tiles, tileState{
				Row: t.Position.Row, Col: t.Position.Col,
				Present: true, Excluded: false,
			})
		}
	}
	for _, p := range s.store.Positions() {
		if seen[p] {
			continue
		}
		grow(p)
		seen[p] = true
		resp.Tiles = append(resp.Tiles, tileState{Row: p.Row, Col: p.Col, Excluded: true})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("bad row: %w", err))
		return
	}
	col, err := strconv.Atoi(chi.URLParam(r, "col"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("bad col: %w", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	excluded, err := s.store.Toggle(tile.Position{Row: row, Col: col})
	if err != nil {
		s.fail(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"excluded": excluded})
}

func (s *Server) handleMosaic(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.runner.Execute(r.Context(), s.opts)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, result.Report.OutputPath)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// buildCatalog reads the current directory contents. A catalog with no
// tiles is legal here when everything is excluded.
func (s *Server) buildCatalog() (*tile.Catalog, error) {
	catalog, err := tile.Build(s.opts.Path, s.parser,
		tile.WithLabel(s.opts.Label), tile.WithLogger(s.logger))
	if err != nil {
		var cerr *tile.CatalogError
		if errors.As(err, &cerr) && s.store.Len() > 0 {
			return nil, nil
		}
		return nil, err
	}
	return catalog, nil
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "err", err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
