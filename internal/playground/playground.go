// Package playground is the http api behind the transformation playground.
// It lists transformations, reads and writes fixture files, runs
// transformations over posted sources and streams file changes.
package playground

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/livebud/sfcmod/internal/cli/hot"
	"github.com/livebud/sfcmod/internal/config"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/resolver"
	"github.com/livebud/sfcmod/internal/transform"
	"github.com/livebud/sfcmod/internal/watcher"
	"github.com/rs/zerolog"
)

// MaxBody is the largest source or fixture the playground accepts
const MaxBody = 4 << 20

// New playground server over the fixtures in dir
func New(log zerolog.Logger, registry *registry.Registry, config *config.Config, dir string) *Server {
	s := &Server{
		log:      log,
		registry: registry,
		config:   config,
		dir:      dir,
		files:    resolver.New(dir),
		runner:   transform.New(log, transform.Options{}),
		hot:      hot.New(),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.index)
	s.mux.HandleFunc("GET /meta", s.meta)
	s.mux.HandleFunc("GET /files/{path...}", s.readFile)
	s.mux.HandleFunc("POST /files/{path...}", s.writeFile)
	s.mux.HandleFunc("POST /run/{name}", s.run)
	s.mux.Handle("GET /events", s.hot)
	return s
}

type Server struct {
	log      zerolog.Logger
	registry *registry.Registry
	config   *config.Config
	dir      string
	files    *resolver.Resolver
	runner   *transform.Runner
	hot      *hot.Server
	mux      *http.ServeMux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("playground: request")
	s.mux.ServeHTTP(w, r)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Hello")
}

// Meta describes what the playground can run
type Meta struct {
	Transformations []*Transformation `json:"transformations"`
	Presets         []*Preset         `json:"presets"`
}

type Transformation struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Blocks      []string `json:"blocks"`
}

type Preset struct {
	Name           string                 `json:"name"`
	Transformation string                 `json:"transformation"`
	Params         map[string]interface{} `json:"params,omitempty"`
	Glob           string                 `json:"glob,omitempty"`
}

func (s *Server) meta(w http.ResponseWriter, r *http.Request) {
	meta := &Meta{
		Transformations: []*Transformation{},
		Presets:         []*Preset{},
	}
	for _, entry := range s.registry.List() {
		meta.Transformations = append(meta.Transformations, &Transformation{
			Name:        entry.Name,
			Description: entry.Description,
			Blocks:      entry.Blocks(),
		})
	}
	if s.config != nil {
		for _, preset := range s.config.Presets {
			meta.Presets = append(meta.Presets, &Preset{
				Name:           preset.Name,
				Transformation: preset.Transformation,
				Params:         preset.Params,
				Glob:           preset.Glob,
			})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(meta); err != nil {
		s.log.Error().Err(err).Msg("playground: unable to encode meta")
	}
}

func (s *Server) readFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.files.Resolve(&resolver.Resolve{Path: r.PathValue("path")})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(file.Code)
}

func (s *Server) writeFile(w http.ResponseWriter, r *http.Request) {
	code, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	file, err := s.files.Write(&resolver.Resolve{Path: r.PathValue("path")}, code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Debug().Str("path", file.Path).Msg("playground: wrote fixture")
	w.WriteHeader(http.StatusOK)
}

// run a transformation over the posted source. Failures are part of the
// output so the editor can show them.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	query := r.URL.Query()
	path := query.Get("path")
	if path == "" {
		path = "input.vue"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	out, err := s.transform(r.PathValue("name"), path, string(source), query["param"])
	if err != nil {
		io.WriteString(w, "/* ERROR */\n\n"+err.Error()+"\n")
		return
	}
	io.WriteString(w, out)
}

func (s *Server) transform(name, path, source string, pairs []string) (string, error) {
	// Presets run their transformation with their params
	var preset *config.Preset
	if s.config != nil {
		for _, p := range s.config.Presets {
			if p.Name == name {
				preset = p
				name = p.Transformation
			}
		}
	}
	entry, err := s.registry.Load(name)
	if err != nil {
		return "", err
	}
	params, err := config.Params(preset, "", pairs)
	if err != nil {
		return "", err
	}
	return s.runner.Run(transform.FileInfo{Path: path, Source: source}, entry.Transformation, params)
}

// Change is the data of a change event
type Change struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}

// Publish file changes to the event stream
func (s *Server) Publish(events []watcher.Event) error {
	for _, event := range events {
		rel, err := filepath.Rel(s.dir, event.Path)
		if err != nil {
			rel = event.Path
		}
		data, err := json.Marshal(&Change{string(event.Op), filepath.ToSlash(rel)})
		if err != nil {
			return err
		}
		s.log.Info().Str("event", string(event.Op)).Str("path", rel).Msg("playground: file changed")
		s.hot.Publish(&hot.Event{Type: "change", Data: data})
	}
	return nil
}

// Watch the fixtures until the context is canceled
func (s *Server) Watch(ctx context.Context) error {
	if err := watcher.Watch(ctx, s.log, s.dir, s.Publish); err != nil {
		s.log.Error().Err(err).Msg("playground: unable to watch fixtures")
		return err
	}
	return nil
}
