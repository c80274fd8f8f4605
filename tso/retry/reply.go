package retry

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// LoggingReplyProcessor logs outcomes instead of writing them to a network
// connection. It stands in for the transport-owned reply path in standalone
// servers and tools.
type LoggingReplyProcessor struct{}

func (LoggingReplyProcessor) SendCommitResponse(startTS, commitTS uint64, conn ClientConn) {
	log.Info("commit response", zap.Uint64("start-ts", startTS), zap.Uint64("commit-ts", commitTS))
}

func (LoggingReplyProcessor) SendAbortResponse(startTS uint64, conn ClientConn) {
	log.Info("abort response", zap.Uint64("start-ts", startTS))
}
