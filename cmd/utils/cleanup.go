package utils

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/anyswap/CrossChain-Settlement/log"
)

var (
	// TopWaitGroup is the top wait group of all goroutines
	TopWaitGroup = new(sync.WaitGroup)

	// CleanupChan is closed when cleanup starts
	CleanupChan = make(chan struct{})

	cleanupOnce sync.Once
)

// IsCleanuping is cleanuping
func IsCleanuping() bool {
	select {
	case <-CleanupChan:
		return true
	default:
		return false
	}
}

// StartCleanup close cleanup channel, safe to call more than once
func StartCleanup() {
	cleanupOnce.Do(func() {
		close(CleanupChan)
	})
}

// WaitAndCleanup wait for interrupt signal, then run cleanup
func WaitAndCleanup(doCleanup func()) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	sig := <-signalChan
	log.Info("receive signal, start cleanup", "signal", sig)
	StartCleanup()
	if doCleanup != nil {
		doCleanup()
	}
	log.Info("cleanup finished, waiting for goroutines to exit")
	TopWaitGroup.Wait()
}
