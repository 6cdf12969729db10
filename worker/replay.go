package worker

import (
	"context"
	"time"

	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/pkg/errors"
)

var (
	maxReplayLifetime = int64(7 * 24 * 3600)

	// statuses of requests which may still need delivery
	replayStatuses = []mongodb.RequestStatus{
		mongodb.RequestSent,
		mongodb.DeliveryFailed,
	}
)

// StartReplayJob re-enqueue undelivered requests found in mongodb
func StartReplayJob(ctx context.Context, relay *Relay, interval time.Duration) {
	logWorker("replay", "start replay job", "interval", interval)
	for {
		if !mongodb.IsEnabled() {
			logWorkerWarn("replay", "mongodb is not enabled, stop replay job")
			return
		}
		count := replayOnce(relay)
		if count > 0 {
			logWorker("replay", "replay undelivered requests", "count", count)
		}
		select {
		case <-ctx.Done():
			logWorker("replay", "stop replay job")
			return
		case <-time.After(interval):
		}
	}
}

func replayOnce(relay *Relay) (count int) {
	septime := getSepTimeInFind(maxReplayLifetime)
	for _, status := range replayStatuses {
		res, err := mongodb.FindRequestsWithStatus(status, septime)
		if err != nil {
			logWorkerError("replay", "find requests failed", err, "status", status)
			continue
		}
		for _, mr := range res {
			packet, err := mongodb.ConvertToPacket(mr)
			if err != nil {
				logWorkerError("replay", "convert request failed", err, "requestID", mr.Key)
				continue
			}
			err = relay.Redeliver(packet)
			switch {
			case err == nil:
				count++
			case errors.Is(err, errAlreadyInQueue):
				logWorkerTrace("replay", "ignore request in queue", "requestID", mr.Key)
			default:
				logWorkerError("replay", "redeliver request failed", err, "requestID", mr.Key)
			}
		}
	}
	return count
}
