// Package inbox merges export bundles dropped into a watched directory.
package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/casedesk/internal/caseservice"
	"github.com/starford/casedesk/internal/storage"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	debounce = 200 * time.Millisecond
)

// Importer merges an export bundle.
type Importer interface {
	Import(ctx context.Context, b caseservice.Bundle) (caseservice.ImportSummary, error)
}

// Inbox processes *.json bundles found at the root of files.
type Inbox struct {
	files  storage.Provider
	imp    Importer
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Inbox over files.
func New(files storage.Provider, imp Importer, logger *slog.Logger) *Inbox {
	return &Inbox{files: files, imp: imp, logger: logger, now: time.Now}
}

// Sweep processes every bundle currently waiting in the inbox.
func (in *Inbox) Sweep(ctx context.Context) error {
	metas, err := in.files.List("", ".json")
	if err != nil {
		return err
	}
	for _, m := range metas {
		if isBundle(m.Path) {
			in.process(ctx, m.Path)
		}
	}
	return nil
}

// Watch sweeps the inbox and then processes bundles as they arrive until
// ctx is cancelled. Events for the same file are debounced so a bundle is
// read once its writer has finished.
func (in *Inbox) Watch(ctx context.Context) error {
	root, err := in.files.Abs("")
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", root, err)
	}
	in.logger.Info("inbox: started", slog.String("dir", root))

	if err := in.Sweep(ctx); err != nil {
		in.logger.Warn("inbox: initial sweep failed", slog.String("error", err.Error()))
	}

	pending := map[string]struct{}{}
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			in.logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			for name := range pending {
				in.process(ctx, name)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !isBundle(name) {
				continue
			}
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerCh = timer.C
			} else {
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func isBundle(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}

// process imports one bundle and files it under processed/ or failed/.
func (in *Inbox) process(ctx context.Context, name string) {
	data, err := in.files.Read(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			in.logger.Warn("inbox: read failed", slog.String("file", name), slog.String("error", err.Error()))
		}
		return
	}

	sum, err := in.importBundle(ctx, data)
	if err != nil {
		in.logger.Warn("inbox: import failed", slog.String("file", name), slog.String("error", err.Error()))
		in.file(name, FailedDir)
		if werr := in.files.Write(filepath.Join(FailedDir, name+".error.txt"), []byte(err.Error()+"\n")); werr != nil {
			in.logger.Warn("inbox: write error note failed", slog.String("file", name), slog.String("error", werr.Error()))
		}
		return
	}

	in.logger.Info("inbox: imported",
		slog.String("file", name),
		slog.Int("cases_created", sum.CasesCreated),
		slog.Int("cases_updated", sum.CasesUpdated),
		slog.Int("officers_created", sum.OfficersCreated),
		slog.Int("officers_updated", sum.OfficersUpdated))
	in.file(name, ProcessedDir)
}

func (in *Inbox) importBundle(ctx context.Context, data []byte) (caseservice.ImportSummary, error) {
	var b caseservice.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return caseservice.ImportSummary{}, fmt.Errorf("decode bundle: %w", err)
	}
	return in.imp.Import(ctx, b)
}

// file moves name into dir, keeping earlier bundles of the same name.
func (in *Inbox) file(name, dir string) {
	target := filepath.Join(dir, name)
	if _, err := in.files.Read(target); err == nil {
		target = filepath.Join(dir, in.now().UTC().Format("20060102-150405.000000000")+"-"+name)
	}
	if err := in.files.Move(name, target); err != nil {
		in.logger.Warn("inbox: move failed", slog.String("file", name), slog.String("error", err.Error()))
	}
}
