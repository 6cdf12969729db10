// Package worker runs the loopback relay and its replay job.
package worker

import (
	"context"
	"time"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/params"
)

const interval = 10 * time.Millisecond

// StartSettleWork start relay consumer and replay job, stop on ctx done
func StartSettleWork(ctx context.Context, relay *Relay, config *params.RelayConfig) {
	logWorker("worker", "start settle worker")

	utils.TopWaitGroup.Add(1)
	go func() {
		defer utils.TopWaitGroup.Done()
		relay.Run(ctx)
	}()
	time.Sleep(interval)

	if config != nil && config.ReplayInterval > 0 {
		utils.TopWaitGroup.Add(1)
		go func() {
			defer utils.TopWaitGroup.Done()
			StartReplayJob(ctx, relay, time.Duration(config.ReplayInterval)*time.Second)
		}()
	}
}
