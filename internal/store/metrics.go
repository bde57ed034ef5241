package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expenseledger_records_imported_total",
		Help: "Records appended by merge imports.",
	})
	duplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expenseledger_import_duplicates_skipped_total",
		Help: "Import candidates skipped as duplicates.",
	})
	databaseSwitches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expenseledger_database_switches_total",
		Help: "Completed active-database switches.",
	})
)
