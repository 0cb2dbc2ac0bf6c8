package correlator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestBeginThenDeliverResolvesAwait(t *testing.T) {
	c := New(testLog())
	ch, err := c.Begin("t1", "m1")
	require.NoError(t, err)

	go c.Deliver("t1", "m1", "payload")

	got, err := c.Await(context.Background(), "t1", "m1", ch)
	require.NoError(t, err)
	require.Equal(t, "payload", got)
}

func TestBeginDuplicateKeyFails(t *testing.T) {
	c := New(testLog())
	_, err := c.Begin("t1", "m1")
	require.NoError(t, err)

	_, err = c.Begin("t1", "m1")
	require.ErrorIs(t, err, ErrAlreadyPending)
}

func TestDeliverWithNoWaiterIsDiscarded(t *testing.T) {
	c := New(testLog())
	require.NotPanics(t, func() { c.Deliver("ghost", "msg", "x") })
}

func TestAwaitTimesOutAndClearsPendingEntry(t *testing.T) {
	c := New(testLog())
	ch, err := c.Begin("t1", "m1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err = c.Await(ctx, "t1", "m1", ch)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// key should be free again for a fresh Begin
	_, err = c.Begin("t1", "m1")
	require.NoError(t, err)
}

func TestDeliverAfterTimeoutDoesNotBlock(t *testing.T) {
	c := New(testLog())
	ch, err := c.Begin("t1", "m1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = c.Await(ctx, "t1", "m1", ch)
	require.Error(t, err)

	require.NotPanics(t, func() { c.Deliver("t1", "m1", "late") })
}
