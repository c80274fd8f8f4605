package retry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pingcap-incubator/tinytso/tso/committable"
	"github.com/pingcap-incubator/tinytso/tso/monitoring"
	"github.com/pingcap-incubator/tinytso/tso/panicker"
)

type reply struct {
	commit   bool
	startTS  uint64
	commitTS uint64
	conn     ClientConn
}

type replyRecorder struct {
	mu      sync.Mutex
	replies []reply
}

func (r *replyRecorder) SendCommitResponse(startTS, commitTS uint64, conn ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{commit: true, startTS: startTS, commitTS: commitTS, conn: conn})
}

func (r *replyRecorder) SendAbortResponse(startTS uint64, conn ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply{commit: false, startTS: startTS, conn: conn})
}

func (r *replyRecorder) all() []reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reply{}, r.replies...)
}

// failingClient fails lookups for the start timestamps in failTS and
// otherwise delegates to the underlying store.
type failingClient struct {
	store  committable.Client
	failTS map[uint64]bool
}

func (c *failingClient) GetCommitTimestamp(ctx context.Context, startTS uint64) (*committable.CommitRecord, error) {
	if c.failTS[startTS] {
		return nil, errors.New("commit table unavailable")
	}
	return c.store.GetCommitTimestamp(ctx, startTS)
}

func newTestProcessor(t *testing.T, client committable.Client) (*Processor, *replyRecorder) {
	recorder := &replyRecorder{}
	return NewProcessor(client, recorder, panicker.RuntimePanicker{}, 16), recorder
}

func TestRetryAlreadyCommitted(t *testing.T) {
	store := committable.NewMemStore()
	require.Nil(t, store.AddCommittedTransaction(context.Background(), 42, 99))

	committed := testutil.ToFloat64(txAlreadyCommittedCounter)

	p, recorder := newTestProcessor(t, store)
	p.DisambiguateRetryRequestHeuristically(42, "conn-1", monitoring.NewContext())
	p.Close()

	replies := recorder.all()
	require.Len(t, replies, 1)
	require.True(t, replies[0].commit)
	require.Equal(t, uint64(42), replies[0].startTS)
	require.Equal(t, uint64(99), replies[0].commitTS)
	require.Equal(t, "conn-1", replies[0].conn)
	require.Equal(t, committed+1, testutil.ToFloat64(txAlreadyCommittedCounter))
}

func TestRetryInvalidTx(t *testing.T) {
	store := committable.NewMemStore()
	ctx := context.Background()
	require.Nil(t, store.AddCommittedTransaction(ctx, 7, 13))
	require.Nil(t, store.SetInvalid(ctx, 7))

	invalid := testutil.ToFloat64(invalidTxCounter)

	p, recorder := newTestProcessor(t, store)
	p.DisambiguateRetryRequestHeuristically(7, "conn-2", monitoring.NewContext())
	p.Close()

	replies := recorder.all()
	require.Len(t, replies, 1)
	require.False(t, replies[0].commit)
	require.Equal(t, uint64(7), replies[0].startTS)
	require.Equal(t, invalid+1, testutil.ToFloat64(invalidTxCounter))
}

func TestRetryNoCommitRecord(t *testing.T) {
	noRecord := testutil.ToFloat64(noCommitTimestampCounter)

	p, recorder := newTestProcessor(t, committable.NewMemStore())
	p.DisambiguateRetryRequestHeuristically(55, "conn-3", monitoring.NewContext())
	p.Close()

	replies := recorder.all()
	require.Len(t, replies, 1)
	require.False(t, replies[0].commit)
	require.Equal(t, uint64(55), replies[0].startTS)
	require.Equal(t, noRecord+1, testutil.ToFloat64(noCommitTimestampCounter))
}

func TestRetryLookupFailureDropsEventAndContinues(t *testing.T) {
	store := committable.NewMemStore()
	require.Nil(t, store.AddCommittedTransaction(context.Background(), 42, 99))
	client := &failingClient{store: store, failTS: map[uint64]bool{10: true}}

	p, recorder := newTestProcessor(t, client)
	p.DisambiguateRetryRequestHeuristically(10, "conn-err", monitoring.NewContext())
	p.DisambiguateRetryRequestHeuristically(42, "conn-ok", monitoring.NewContext())
	p.Close()

	// No reply for the failed event; the pipeline kept going.
	replies := recorder.all()
	require.Len(t, replies, 1)
	require.True(t, replies[0].commit)
	require.Equal(t, uint64(42), replies[0].startTS)
}

func TestRetryRepliesKeepPublishOrder(t *testing.T) {
	store := committable.NewMemStore()
	ctx := context.Background()
	require.Nil(t, store.AddCommittedTransaction(ctx, 1, 101))
	require.Nil(t, store.AddCommittedTransaction(ctx, 3, 103))

	p, recorder := newTestProcessor(t, store)
	for _, startTS := range []uint64{1, 2, 3} {
		p.DisambiguateRetryRequestHeuristically(startTS, nil, monitoring.NewContext())
	}
	p.Close()

	replies := recorder.all()
	require.Len(t, replies, 3)
	require.Equal(t, uint64(1), replies[0].startTS)
	require.True(t, replies[0].commit)
	require.Equal(t, uint64(2), replies[1].startTS)
	require.False(t, replies[1].commit)
	require.Equal(t, uint64(3), replies[2].startTS)
	require.True(t, replies[2].commit)
}

// gatedClient parks every lookup until release is closed, reporting each
// entry on the entered channel.
type gatedClient struct {
	entered chan uint64
	release chan struct{}
}

func (c *gatedClient) GetCommitTimestamp(ctx context.Context, startTS uint64) (*committable.CommitRecord, error) {
	c.entered <- startTS
	<-c.release
	return nil, nil
}

func TestRetryProducerBlocksWhenQueueFull(t *testing.T) {
	client := &gatedClient{
		entered: make(chan uint64, 3),
		release: make(chan struct{}),
	}
	recorder := &replyRecorder{}
	p := NewProcessor(client, recorder, panicker.RuntimePanicker{}, 1)

	published := make(chan uint64, 3)
	go func() {
		for _, startTS := range []uint64{1, 2, 3} {
			p.DisambiguateRetryRequestHeuristically(startTS, nil, monitoring.NewContext())
			published <- startTS
		}
	}()

	// The consumer parks on event 1 and event 2 fills the single queue slot,
	// so publishing event 3 must block.
	require.Equal(t, uint64(1), <-client.entered)
	require.Equal(t, uint64(1), <-published)
	require.Equal(t, uint64(2), <-published)
	select {
	case startTS := <-published:
		t.Fatalf("publish of %d should have blocked on the full queue", startTS)
	case <-time.After(50 * time.Millisecond):
	}

	// Unparking the consumer drains the queue and unblocks the producer.
	close(client.release)
	require.Equal(t, uint64(3), <-published)
	p.Close()
	require.Len(t, recorder.all(), 3)
}

func TestRetryManyEventsDrainOnClose(t *testing.T) {
	store := committable.NewMemStore()
	ctx := context.Background()
	const n = 100
	for i := uint64(1); i <= n; i++ {
		require.Nil(t, store.AddCommittedTransaction(ctx, i, i+1000))
	}

	p, recorder := newTestProcessor(t, store)
	for i := uint64(1); i <= n; i++ {
		p.DisambiguateRetryRequestHeuristically(i, nil, monitoring.NewContext())
	}
	p.Close()

	replies := recorder.all()
	require.Len(t, replies, n)
	for i, r := range replies {
		require.Equal(t, uint64(i+1), r.startTS)
		require.True(t, r.commit)
	}
}
