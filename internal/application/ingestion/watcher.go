package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"filing-rag-api/pkg/logger"
)

// Watcher 监听源目录，新申报落地后重新运行流水线
type Watcher struct {
	pipeline     *Pipeline
	sourceDir    string
	completedDir string
	debounce     time.Duration
	onReport     func(*Report)
}

// NewWatcher 创建 Watcher，onReport 可为空
func NewWatcher(pipeline *Pipeline, sourceDir, completedDir string, debounce time.Duration, onReport func(*Report)) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{
		pipeline:     pipeline,
		sourceDir:    sourceDir,
		completedDir: completedDir,
		debounce:     debounce,
		onReport:     onReport,
	}
}

// Run 先处理一次现有文件，然后阻塞监听直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.sourceDir); err != nil {
		return err
	}

	w.runOnce(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						logger.Warn(ctx, "failed to watch new directory", "dir", event.Name, "error", err.Error())
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error(ctx, "watcher error", err)
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return false
	}
	if w.completedDir == "" {
		return true
	}
	return !within(absPath(w.completedDir), absPath(event.Name))
}

// absPath 解析为绝对路径，失败时退回 Clean 结果
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// within 判断 path 是否位于 dir 之内（含 dir 本身），两者须为绝对路径
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) runOnce(ctx context.Context) {
	report, err := w.pipeline.Run(ctx, w.sourceDir, w.completedDir)
	if err != nil {
		logger.Error(ctx, "ingestion run failed", err)
		return
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.completedDir != "" && absPath(path) == absPath(w.completedDir) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
