// Package metrics exposes the ledger's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TransactionsSubmitted counts accepted submissions by transaction type
	TransactionsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chama_transactions_submitted_total",
		Help: "Transactions accepted in PENDING state, by type.",
	}, []string{"type"})

	// TransactionsFinalized counts verification decisions by resulting status
	TransactionsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chama_transactions_finalized_total",
		Help: "Transactions moved to VERIFIED or REJECTED.",
	}, []string{"status"})

	// SubmissionsRejected counts submissions refused by validation, by reason
	SubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chama_transactions_rejected_submissions_total",
		Help: "Transaction submissions refused before persistence, by reason.",
	}, []string{"reason"})

	// LoginFailures counts failed login attempts
	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chama_login_failures_total",
		Help: "Failed login attempts, including locked accounts.",
	})

	// HTTPRequests counts served requests by method, route and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chama_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
