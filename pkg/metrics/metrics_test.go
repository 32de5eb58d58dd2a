package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSaleCommitted(t *testing.T) {
	m := New("pos-test")
	require.NoError(t, m.Register())

	m.RecordSaleCommitted(3000, 3)
	m.RecordSaleCommitted(500, 1)

	require.Equal(t, float64(2), testutil.ToFloat64(m.SalesCommittedTotal))
	require.Equal(t, float64(3500), testutil.ToFloat64(m.RevenueTotal))
	require.Equal(t, float64(4), testutil.ToFloat64(m.ItemsSoldTotal))
}

func TestRecordFailuresByReason(t *testing.T) {
	m := New("pos-test")
	require.NoError(t, m.Register())

	m.RecordSaleFailed("insufficient_stock")
	m.RecordSaleFailed("insufficient_stock")
	m.RecordSaleFailed("empty_cart")
	m.RecordDocumentFailure("invoice_pdf")

	require.Equal(t, float64(2), testutil.ToFloat64(m.SaleCommitFailuresTotal.WithLabelValues("insufficient_stock")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.SaleCommitFailuresTotal.WithLabelValues("empty_cart")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.DocumentFailuresTotal.WithLabelValues("invoice_pdf")))
}

func TestRegisterTwiceFails(t *testing.T) {
	m := New("pos-test")
	require.NoError(t, m.Register())
	require.Error(t, m.Register())
}
