package mq_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/posregister/pkg/db"
	"github.com/wyfcoding/posregister/pkg/db/dbtest"
	"github.com/wyfcoding/posregister/pkg/mq"
)

func newOutbox(t *testing.T) (*db.DB, *mq.OutboxPublisher) {
	t.Helper()
	d := dbtest.New(t, &outbox.Message{})
	return d, mq.NewOutboxPublisher(outbox.NewManager(d.DB, slog.Default()))
}

func countMessages(t *testing.T, d *db.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.Model(&outbox.Message{}).Count(&n).Error)
	return n
}

func TestPublishInTxCommitsWithTransaction(t *testing.T) {
	d, p := newOutbox(t)

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		return p.PublishInTx(ctx, contextx.GetTx(ctx), "sale.committed", "INV1", map[string]string{"total": "3000"})
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countMessages(t, d))
}

func TestPublishInTxRollsBackWithTransaction(t *testing.T) {
	d, p := newOutbox(t)
	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := p.PublishInTx(ctx, contextx.GetTx(ctx), "sale.committed", "INV1", struct{}{}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countMessages(t, d))
}

func TestPublishJoinsTransactionFromContext(t *testing.T) {
	d, p := newOutbox(t)
	boom := errors.New("boom")

	err := d.WithTx(context.Background(), func(ctx context.Context) error {
		if err := p.Publish(ctx, "cart.item_added", "s1", struct{}{}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countMessages(t, d))

	require.NoError(t, p.Publish(context.Background(), "cart.item_added", "s1", struct{}{}))
	require.EqualValues(t, 1, countMessages(t, d))
}

func TestPublishInTxRejectsForeignTx(t *testing.T) {
	_, p := newOutbox(t)

	require.Error(t, p.PublishInTx(context.Background(), nil, "t", "k", struct{}{}))
	require.Error(t, p.PublishInTx(context.Background(), "tx", "t", "k", struct{}{}))
}
