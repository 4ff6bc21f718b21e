package configwatcher

import (
	"copilot_inside_backend/internal/catalog"
	"copilot_inside_backend/pkg/logger"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type CatalogReloader func(cat *catalog.Catalog)

// WatchCatalog 监听课程目录文件，写入后防抖 1 秒重新加载。
// 加载或校验失败时保留旧目录继续服务。
func WatchCatalog(catalogPath string, reloader CatalogReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal("Failed to create catalog watcher:", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(catalogPath)
	if err != nil {
		log.Fatal("Failed to get absolute path:", err)
	}

	if err := watcher.Add(absPath); err != nil {
		log.Fatal("Failed to watch catalog file:", err)
	}

	var mu sync.Mutex
	timer := time.NewTimer(0)
	<-timer.C

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// 防抖处理
				mu.Lock()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(1 * time.Second)
				mu.Unlock()
			}
		case <-timer.C:
			newCat, err := catalog.Load(absPath)
			if err != nil {
				logger.Log.Error("Failed to reload catalog", zap.Error(err))
				continue
			}
			logger.Log.Info("Catalog reloaded", zap.String("path", absPath))
			reloader(newCat)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Catalog watcher error", zap.Error(err))
		}
	}
}
