package retry

import (
	"context"
	"fmt"
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/pingcap-incubator/tinytso/tso/committable"
	"github.com/pingcap-incubator/tinytso/tso/monitoring"
	"github.com/pingcap-incubator/tinytso/tso/panicker"
	"github.com/pingcap-incubator/tinytso/util/worker"
)

// DefaultQueueSize is the bound on in-flight retry events. Producers block
// once the queue is full, which caps the memory the pipeline can consume
// under sustained overload.
const DefaultQueueSize = 1 << 12

const commitRetryTimer = "retry.processor.commit-retry.latency"

// ClientConn identifies the connection the reply for an event must be
// written to. The processor never inspects it; it is handed through to the
// ReplyProcessor unchanged.
type ClientConn interface{}

// ReplyProcessor delivers commit/abort outcomes back to clients.
type ReplyProcessor interface {
	SendCommitResponse(startTS, commitTS uint64, conn ClientConn)
	SendAbortResponse(startTS uint64, conn ClientConn)
}

type eventType int

const (
	eventCommitRetry eventType = iota
)

type retryEvent struct {
	typ     eventType
	startTS uint64
	conn    ClientConn
	monCtx  *monitoring.Context
}

// Processor disambiguates retry requests from clients that timed out waiting
// for a commit/abort decision. Events are consumed by a single goroutine in
// strict FIFO order, so replies for events published by the same producer are
// never reordered. Each event results in exactly one reply, except when the
// commit table lookup fails: the event is then dropped without replying and
// the client's own retry mechanism re-drives resolution.
type Processor struct {
	commitTableClient committable.Client
	replyProc         ReplyProcessor
	panicker          panicker.Panicker

	worker    *worker.Worker
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewProcessor starts the consumer goroutine and returns the processor.
// queueSize <= 0 selects DefaultQueueSize.
func NewProcessor(client committable.Client, replyProc ReplyProcessor, pnk panicker.Panicker, queueSize int) *Processor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Processor{
		commitTableClient: client,
		replyProc:         replyProc,
		panicker:          pnk,
	}
	p.worker = worker.NewWorker("retry", queueSize, &p.wg)
	p.worker.Start(p)
	return p
}

// DisambiguateRetryRequestHeuristically publishes a commit-retry event for
// startTS. Blocks only when the queue is full. monCtx must be non-nil.
func (p *Processor) DisambiguateRetryRequestHeuristically(startTS uint64, conn ClientConn, monCtx *monitoring.Context) {
	monCtx.TimerStart(commitRetryTimer)
	p.worker.Sender() <- retryEvent{
		typ:     eventCommitRetry,
		startTS: startTS,
		conn:    conn,
		monCtx:  monCtx,
	}
}

// Close stops the consumer after it drains the events already published.
// Safe to call more than once.
func (p *Processor) Close() {
	p.closeOnce.Do(func() {
		p.worker.Stop()
		p.wg.Wait()
	})
}

// Handle implements worker.TaskHandler. It runs on the single consumer
// goroutine.
func (p *Processor) Handle(t worker.Task) {
	event, ok := t.(retryEvent)
	if !ok {
		p.panicker.Panic(fmt.Sprintf("unexpected task in retry queue: %T", t), nil)
		return
	}
	switch event.typ {
	case eventCommitRetry:
		p.handleCommitRetry(event)
		event.monCtx.TimerStop(commitRetryTimer)
	default:
		p.panicker.Panic(fmt.Sprintf("unknown retry event type: %d", event.typ), nil)
		return
	}
	event.monCtx.Publish()
}

// OnPanic implements worker.Recoverer: any panic out of Handle is an
// invariant violation and must stop the pipeline.
func (p *Processor) OnPanic(t worker.Task, recovered interface{}) {
	p.panicker.Panic(fmt.Sprintf("retry processor died handling %T: %v", t, recovered), nil)
}

func (p *Processor) handleCommitRetry(event retryEvent) {
	startTS := event.startTS

	record, err := p.commitTableClient.GetCommitTimestamp(context.Background(), startTS)
	if err != nil {
		// Drop without replying. The client will time out and retry, and by
		// then the commit table may be reachable again.
		log.Error("error reading from commit table, dropping retry request",
			zap.Uint64("start-ts", startTS), zap.Error(err))
		return
	}

	switch {
	case record == nil:
		// If the transaction had committed, a durable record would exist by
		// the time the client timed out and retried.
		log.Debug("no commit record found, sending abort to client", zap.Uint64("start-ts", startTS))
		p.replyProc.SendAbortResponse(startTS, event.conn)
		noCommitTimestampCounter.Inc()
	case record.Valid:
		log.Debug("valid commit record found, sending commit to client",
			zap.Uint64("start-ts", startTS), zap.Uint64("commit-ts", record.CommitTS))
		p.replyProc.SendCommitResponse(startTS, record.CommitTS, event.conn)
		txAlreadyCommittedCounter.Inc()
	default:
		log.Debug("invalid transaction marker found, sending abort to client", zap.Uint64("start-ts", startTS))
		p.replyProc.SendAbortResponse(startTS, event.conn)
		invalidTxCounter.Inc()
	}
}
