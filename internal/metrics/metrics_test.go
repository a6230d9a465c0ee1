package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestLedgerCounters(t *testing.T) {
	m := New()

	m.ExpenseCreated("USD", decimal.RequireFromString("12.50"))
	m.ExpenseCreated("USD", decimal.RequireFromString("7.50"))
	m.SplitSettled()

	if got := testutil.ToFloat64(m.expensesCreated.WithLabelValues("USD")); got != 2 {
		t.Errorf("expenses_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.expenseAmount.WithLabelValues("USD")); got != 20 {
		t.Errorf("expense_amount_total = %v, want 20", got)
	}
	if got := testutil.ToFloat64(m.splitsSettled); got != 1 {
		t.Errorf("splits_settled_total = %v, want 1", got)
	}
}

func TestHandlerExposesRPCMetrics(t *testing.T) {
	m := New()
	m.ObserveRPC("/splitledger.v1.ExpenseService/CreateExpense", "ok", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`splitledger_rpc_requests_total{code="ok",procedure="/splitledger.v1.ExpenseService/CreateExpense"} 1`,
		"splitledger_rpc_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
