package worker

import (
	"time"

	"github.com/anyswap/CrossChain-Settlement/log"
)

const logWorkerPrefix = "[worker] "

func now() int64 {
	return time.Now().Unix()
}

func getSepTimeInFind(dist int64) int64 {
	return now() - dist
}

func logWorker(job, subject string, context ...interface{}) {
	log.Info(logWorkerPrefix+job+": "+subject, context...)
}

func logWorkerTrace(job, subject string, context ...interface{}) {
	log.Trace(logWorkerPrefix+job+": "+subject, context...)
}

func logWorkerWarn(job, subject string, context ...interface{}) {
	log.Warn(logWorkerPrefix+job+": "+subject, context...)
}

func logWorkerError(job, subject string, err error, context ...interface{}) {
	fields := make([]interface{}, 0, len(context)+2)
	fields = append(fields, context...)
	fields = append(fields, "err", err)
	log.Error(logWorkerPrefix+job+": "+subject, fields...)
}
