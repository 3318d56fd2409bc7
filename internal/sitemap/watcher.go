package sitemap

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceInterval 合并短时间内的连续文件事件
const debounceInterval = 500 * time.Millisecond

// Watch 监听图片目录，目录内容变化时调用 onChange，直到 ctx 取消
func Watch(ctx context.Context, dir string, onChange func() error, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	timer := time.NewTimer(debounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			log.Debug("gallery changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounceInterval)

		case <-timer.C:
			if err := onChange(); err != nil {
				log.Error("failed to regenerate sitemap", zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// 记录错误后继续监听
			log.Warn("gallery watcher error", zap.Error(err))
		}
	}
}
