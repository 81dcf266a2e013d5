package fanout

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	edomain "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/email/domain"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/logger"
	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// fakeDelivery fails for listed recipients and tracks concurrency.
type fakeDelivery struct {
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	sent     []string
}

func (f *fakeDelivery) VerifyConnection(context.Context) bool { return true }

func (f *fakeDelivery) Send(_ context.Context, env edomain.Envelope) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	f.sent = append(f.sent, env.To)
	f.mu.Unlock()
	if f.fail[env.To] {
		return "", errs.E(errs.DeliveryFailed, "transport rejected message")
	}
	return "id-" + env.To, nil
}

func TestSendToMany_SettlesAll(t *testing.T) {
	d := &fakeDelivery{fail: map[string]bool{"r2@shop.se": true}}
	o := New(d, 4, logger.Nop())

	out := o.SendToMany(context.Background(), []string{"r1@shop.se", "r2@shop.se", "r3@shop.se"}, edomain.Envelope{Subject: "s", HTML: "h"})
	require.Len(t, out, 3)
	assert.Equal(t, edomain.Succeeded("r1@shop.se", "id-r1@shop.se"), out[0])
	assert.False(t, out[1].Success)
	assert.Equal(t, "r2@shop.se", out[1].Recipient)
	assert.Equal(t, errs.DeliveryFailed, out[1].Kind)
	assert.Equal(t, edomain.Succeeded("r3@shop.se", "id-r3@shop.se"), out[2])
	assert.Len(t, d.sent, 3)
}

func TestSendToMany_FirstFailureDoesNotDropLaterRecipients(t *testing.T) {
	d := &fakeDelivery{fail: map[string]bool{"r1@shop.se": true}}
	out := New(d, 1, logger.Nop()).SendToMany(context.Background(), []string{"r1@shop.se", "r2@shop.se"}, edomain.Envelope{})
	require.Len(t, out, 2)
	assert.False(t, out[0].Success)
	assert.True(t, out[1].Success)
}

func TestSendToMany_BoundsConcurrency(t *testing.T) {
	d := &fakeDelivery{delay: 20 * time.Millisecond}
	rcpts := []string{"a@shop.se", "b@shop.se", "c@shop.se", "d@shop.se", "e@shop.se", "f@shop.se"}
	out := New(d, 2, logger.Nop()).SendToMany(context.Background(), rcpts, edomain.Envelope{})
	require.Len(t, out, len(rcpts))
	for i, o := range out {
		assert.Equal(t, rcpts[i], o.Recipient)
		assert.True(t, o.Success)
	}
	assert.LessOrEqual(t, d.peak.Load(), int32(2))
}

func TestSendToMany_Empty(t *testing.T) {
	out := New(&fakeDelivery{}, 4, logger.Nop()).SendToMany(context.Background(), nil, edomain.Envelope{})
	assert.Empty(t, out)
}
