package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"flowedit/change"
	"flowedit/diagram"
	"flowedit/editor"
	"flowedit/graphmodel"
	"flowedit/journal"
	"flowedit/model"
	"flowedit/moml"
	"flowedit/scene"
)

// session is one document opened for editing: the tree, its queue, the
// headless view and, when enabled, the journal holding its history.
type session struct {
	path    string
	doc     string
	root    *model.Element
	queue   *change.Queue
	adapter *graphmodel.Adapter
	scene   *scene.Scene
	editor  *editor.Editor
	journal *journal.Journal
	logger  *slog.Logger
}

type sessionOption func(*sessionConfig)

type sessionConfig struct {
	adapterOpts []graphmodel.Option
}

func withAdapterOptions(opts ...graphmodel.Option) sessionOption {
	return func(c *sessionConfig) { c.adapterOpts = append(c.adapterOpts, opts...) }
}

// openSession loads path and restores its undo history from the journal.
// Notices go to w.
func openSession(ctx context.Context, w io.Writer, path string, opts ...sessionOption) (*session, error) {
	var sc sessionConfig
	for _, opt := range opts {
		opt(&sc)
	}
	logger := slog.Default()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	root, err := moml.Load(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	doc, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	s := &session{path: path, doc: doc, root: root, logger: logger}
	stack := change.NewUndoStack(cfg.Undo.Depth)
	s.queue = change.NewQueue(root, change.WithUndoStack(stack), change.WithLogger(logger))

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		j.SetLogger(logger)
		s.journal = j
		err = j.Restore(ctx, doc, model.Fingerprint(root), stack)
		switch {
		case errors.Is(err, journal.ErrStale):
			Warn.Fprintf(w, "  %s changed outside flowedit; history discarded\n", path)
			if err := j.Forget(ctx, doc); err != nil {
				s.close()
				return nil, err
			}
		case err != nil:
			s.close()
			return nil, err
		}
		s.queue.AddListener(j.NewRecorder(doc))
	}

	adapterOpts := append([]graphmodel.Option{graphmodel.WithLogger(logger)}, sc.adapterOpts...)
	s.adapter, err = graphmodel.NewAdapter(ctx, s.queue, adapterOpts...)
	if err != nil {
		s.close()
		return nil, err
	}
	s.scene = scene.New(s.adapter)
	s.editor = editor.New(s.adapter, s.scene, cfg.Editor, editor.WithLogger(logger))
	return s, nil
}

// selectPatterns selects every shown element whose dotted name relative to
// the root matches one of the glob patterns. Dots separate levels, so "*"
// stays on one level and "**" crosses them.
func (s *session) selectPatterns(patterns []string) (int, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(toPath(p)) {
			return 0, fmt.Errorf("invalid pattern %q", p)
		}
	}
	var figs []diagram.Figure
	s.root.Walk(func(e *model.Element) {
		if e == s.root {
			return
		}
		name, err := e.NameRelativeTo(s.root)
		if err != nil {
			return
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(toPath(p), toPath(name)); !ok {
				continue
			}
			if f := s.scene.FigureFor(e); f != nil {
				figs = append(figs, f)
			}
			return
		}
	})
	s.scene.SetSelection(figs)
	return len(figs), nil
}

func toPath(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// save writes the document and the journal when the tree was modified.
func (s *session) save(ctx context.Context) error {
	if !s.queue.Modified() {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".flowedit-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(moml.ExportDocument(s.root)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.queue.ClearModified()
	return s.saveHistory(ctx)
}

func (s *session) saveHistory(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	return s.journal.Save(ctx, s.doc, model.Fingerprint(s.root), s.queue.UndoStack())
}

func (s *session) close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			s.logger.Warn("closing journal", "error", err)
		}
	}
}

// editWith opens path, selects patterns, applies op and saves.
func editWith(cmd *cobra.Command, path string, patterns []string, op func(*session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, cmd.ErrOrStderr(), path)
	if err != nil {
		return err
	}
	defer s.close()
	if len(patterns) > 0 {
		n, err := s.selectPatterns(patterns)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("no element matches %s", strings.Join(patterns, ", "))
		}
	}
	if err := op(s); err != nil {
		return err
	}
	return s.save(ctx)
}
