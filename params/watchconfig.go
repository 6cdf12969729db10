package params

import (
	"path/filepath"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfigFile watch config file and call onReload with the checked new config
func WatchConfigFile(configFile string, onReload func(*Config)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("fsnotify: new watcher failed", "err", err)
		return nil, err
	}

	file := filepath.Clean(configFile)
	// watch the directory, editors replace files on save
	if err = watcher.Add(filepath.Dir(file)); err != nil {
		log.Error("fsnotify: add config path failed", "err", err)
		_ = watcher.Close()
		return nil, err
	}

	go startWatcher(watcher, file, onReload)

	log.Infof("fsnotify: start to watch config file %v", file)
	return func() { _ = watcher.Close() }, nil
}

func startWatcher(watcher *fsnotify.Watcher, file string, onReload func(*Config)) {
	ops := []fsnotify.Op{
		fsnotify.Write,
		fsnotify.Create,
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok { // Channel was closed
				log.Info("fsnotify: watcher closed")
				return
			}
			if filepath.Clean(ev.Name) != file {
				continue
			}
			log.Trace("fsnotify: watcher event", "file", ev.Name, "op", ev.Op)
			for _, op := range ops {
				if ev.Has(op) {
					reloadConfig(file, onReload)
					break
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok { // Channel was closed
				log.Info("fsnotify: watcher closed")
				return
			}
			log.Warn("fsnotify: watcher error", "err", err)
		}
	}
}

func reloadConfig(file string, onReload func(*Config)) {
	newConfig, err := DecodeConfigFile(file, true)
	if err != nil {
		log.Warn("fsnotify: reload config failed", "err", err)
		return
	}
	old := GetConfig()
	if old.ChainID != 0 && newConfig.ChainID != old.ChainID {
		log.Warn("fsnotify: reload config ignored, chain id changed", "old", old.ChainID, "new", newConfig.ChainID)
		return
	}
	SetConfig(newConfig)
	if onReload != nil {
		onReload(newConfig)
	}
	log.Info("fsnotify: reload config success", "file", file)
}
