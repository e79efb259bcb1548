package localnet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

type Metrics struct {
	Executions        *prometheus.CounterVec
	AccountsCreated   prometheus.Counter
	LamportsAllocated prometheus.Counter
	FeesCollected     prometheus.Counter
}

// NewMetrics registers the bank metrics on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Executions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "user_pda_localnet_executions_total",
			Help: "Top-level program executions by program id and result",
		}, []string{"program", "result"}),
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "user_pda_localnet_accounts_created_total",
			Help: "Accounts created through the system program",
		}),
		LamportsAllocated: f.NewCounter(prometheus.CounterOpts{
			Name: "user_pda_localnet_lamports_allocated_total",
			Help: "Lamports moved into newly created accounts",
		}),
		FeesCollected: f.NewCounter(prometheus.CounterOpts{
			Name: "user_pda_localnet_fees_collected_total",
			Help: "Transaction fees charged to fee payers",
		}),
	}
}
