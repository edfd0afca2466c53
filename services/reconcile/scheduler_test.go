package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsPassesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "g1", "member-1")
	f.gw.guilds["g1"] = true
	f.gw.members["g1/member-1"] = true

	s := &Scheduler{
		service:  f.svc,
		interval: 10 * time.Millisecond,
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go s.run(ctx)

	require.Eventually(t, func() bool {
		rec, err := f.ledger.ByJoinedID(context.Background(), "member-1")
		return err == nil && rec != nil && rec.Paid
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
