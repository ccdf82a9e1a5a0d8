// Package metrics holds the business counters exported at /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CalificacionesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "calificaciones_submitted_total",
		Help: "Evaluations created.",
	})

	SigninAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_signin_attempts_total",
			Help: "Sign-in attempts by result.",
		},
		[]string{"result"},
	)

	ImportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excel_import_rows_total",
			Help: "Spreadsheet rows processed by table and outcome.",
		},
		[]string{"table", "outcome"},
	)

	StorageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_storage_operations_total",
			Help: "Document store calls by backend, operation and result.",
		},
		[]string{"backend", "op", "result"},
	)
)

var registerOnce sync.Once

// Register adds the counters to the default registry; safe to call more than once
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(CalificacionesSubmitted, SigninAttempts, ImportRows, StorageOperations)
	})
}

// Result maps an error to a "ok"/"error" label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
