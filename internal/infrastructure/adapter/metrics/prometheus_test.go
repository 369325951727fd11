package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

func TestLedgerMetrics_Counters(t *testing.T) {
	m := NewLedgerMetrics()

	m.ObserveConsume(coreport.OutcomeSuccess)
	m.ObserveConsume(coreport.OutcomeSuccess)
	m.ObserveConsume(coreport.OutcomeDenied)
	m.ObserveUsageRecordFailure()
	m.ObserveRedeem(coreport.OutcomeSuccess)
	m.ObserveCreditsGranted(10)
	m.ObserveCreditsGranted(-5)
	m.ObserveVoucherIssued(10, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConsumeTotal.WithLabelValues(coreport.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsumeTotal.WithLabelValues(coreport.OutcomeDenied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsageRecordFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RedeemTotal.WithLabelValues(coreport.OutcomeSuccess)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.CreditsGranted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VouchersIssued))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.VoucherCreditsIssued))
}

func TestLedgerMetrics_Histograms(t *testing.T) {
	m := NewLedgerMetrics()

	m.ObserveUpstream(coreport.OutcomeSuccess, 300*time.Millisecond)
	m.ObserveHTTP("POST", "/api/chat", "200", 310*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/chat", "200")))
}

func TestLedgerMetrics_PoolStats(t *testing.T) {
	m := NewLedgerMetrics()

	m.ObservePoolStats(sql.DBStats{OpenConnections: 5, InUse: 3, Idle: 2, WaitCount: 7, WaitDuration: 1500 * time.Millisecond})

	assert.Equal(t, 5.0, testutil.ToFloat64(m.PoolOpenConnections))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PoolInUse))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PoolIdle))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PoolWaitCount))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.PoolWaitSeconds))
}

func TestLedgerMetrics_Handler(t *testing.T) {
	m := NewLedgerMetrics()
	m.ObserveRedeem(coreport.OutcomeDenied)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `credit_ledger_voucher_redeem_total{outcome="denied"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestLedgerMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLedgerMetrics()
		NewLedgerMetrics()
	})
}
