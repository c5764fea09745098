package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/livebud/sfcmod/internal/config"
	"github.com/livebud/sfcmod/internal/registry"
	"github.com/livebud/sfcmod/internal/transform"
	"github.com/livebud/sfcmod/internal/watcher"
	"github.com/matthewmueller/diff"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Run a transformation over files
type Run struct {
	Pattern        string
	Transformation string
	Preset         string
	Params         []string
	ParamsFlow     string
	Dry            bool
	Concurrency    int
	Watch          bool
}

// FileError is a file that failed to transform
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Summary of a run
type Summary struct {
	Processed int
	Changed   []string
	Errors    []*FileError
}

// job is a resolved run
type job struct {
	dir            string
	pattern        string
	transformation *registry.Entry
	params         transform.Params
	dry            bool
	concurrency    int
}

// batch runs one job over files. Written keeps the content of the files it
// wrote so watch mode doesn't run over its own output.
type batch struct {
	log     zerolog.Logger
	runner  *transform.Runner
	stdout  io.Writer
	job     *job
	mu      sync.Mutex
	written map[string]string
}

func (c *CLI) resolve(log zerolog.Logger, in *Run) (*job, error) {
	cfg, err := config.Load(c.Dir)
	if err != nil {
		return nil, err
	}
	var preset *config.Preset
	name := in.Transformation
	pattern := in.Pattern
	if in.Preset != "" {
		if preset, err = cfg.Select(in.Preset); err != nil {
			return nil, err
		}
		log.Debug().Str("preset", preset.Name).Msg("cli: selected preset")
		if name == "" {
			name = preset.Transformation
		}
		if pattern == "" {
			pattern = preset.Glob
		}
	}
	if name == "" {
		return nil, fmt.Errorf("cli: missing transformation, pass -t <name> or --preset <name>")
	}
	if pattern == "" {
		pattern = "."
	}
	reg, err := c.registry(log)
	if err != nil {
		return nil, err
	}
	entry, err := reg.Load(name)
	if err != nil {
		return nil, err
	}
	params, err := config.Params(preset, in.ParamsFlow, in.Params)
	if err != nil {
		return nil, err
	}
	concurrency := in.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &job{
		dir:            c.Dir,
		pattern:        pattern,
		transformation: entry,
		params:         params,
		dry:            in.Dry,
		concurrency:    concurrency,
	}, nil
}

// run the files of a job
func (c *CLI) run(ctx context.Context, in *Run) (*Summary, error) {
	log, err := c.logger()
	if err != nil {
		return nil, err
	}
	job, err := c.resolve(log, in)
	if err != nil {
		return nil, err
	}
	files, err := Glob(job.dir, job.pattern)
	if err != nil {
		return nil, err
	}
	b := &batch{
		log:     log,
		runner:  transform.New(log, transform.Options{Validate: true}),
		stdout:  c.Stdout,
		job:     job,
		written: map[string]string{},
	}
	log.Info().Msgf("Processing %d files…", len(files))
	summary, err := b.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(c.Stdout, summary.String())
	if !in.Watch {
		return summary, nil
	}
	log.Info().Str("dir", job.dir).Msg("Watching for changes")
	err = watcher.Watch(ctx, log, job.dir, func(events []watcher.Event) error {
		var changed []string
		for _, event := range events {
			if event.Op == watcher.Delete {
				continue
			}
			rel, err := filepath.Rel(job.dir, event.Path)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if matches, err := Glob(job.dir, job.pattern); err == nil && contains(matches, rel) {
				changed = append(changed, rel)
			}
		}
		if len(changed) == 0 {
			return nil
		}
		summary, err := b.Run(ctx, changed)
		if err != nil {
			return err
		}
		if len(summary.Changed) > 0 || len(summary.Errors) > 0 {
			fmt.Fprint(c.Stdout, summary.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Run the files. Failures are collected per file and never stop the batch.
func (b *batch) Run(ctx context.Context, files []string) (*Summary, error) {
	summary := &Summary{}
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.job.concurrency)
	for _, file := range files {
		file := file
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed, err := b.file(file)
			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			if err != nil {
				b.log.Error().Err(err).Str("path", file).Msg("cli: unable to transform")
				summary.Errors = append(summary.Errors, &FileError{file, err})
				return nil
			}
			if changed {
				summary.Changed = append(summary.Changed, file)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sortSummary(summary)
	return summary, nil
}

// file transforms one file and reports whether it changed
func (b *batch) file(rel string) (bool, error) {
	fpath := filepath.Join(b.job.dir, filepath.FromSlash(rel))
	data, err := os.ReadFile(fpath)
	if err != nil {
		return false, err
	}
	source := string(data)
	b.mu.Lock()
	written, ok := b.written[rel]
	b.mu.Unlock()
	if ok && written == source {
		b.log.Debug().Str("path", rel).Msg("cli: skipping own output")
		return false, nil
	}
	out, err := b.runner.Run(transform.FileInfo{Path: rel, Source: source}, b.job.transformation.Transformation, b.job.params)
	if err != nil {
		return false, err
	}
	if out == source {
		return false, nil
	}
	if b.job.dry {
		b.mu.Lock()
		fmt.Fprintf(b.stdout, "%s\n", rel)
		if err := diff.String(out, source); err != nil {
			fmt.Fprintf(b.stdout, "%s\n", err.Error())
		}
		b.mu.Unlock()
		return true, nil
	}
	if err := writeFile(fpath, out); err != nil {
		return false, err
	}
	b.mu.Lock()
	b.written[rel] = out
	b.mu.Unlock()
	return true, nil
}

// writeFile replaces the file in one step so a failure never leaves it half
// written
func writeFile(fpath, content string) error {
	info, err := os.Stat(fpath)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(fpath), "."+filepath.Base(fpath)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fpath)
}
