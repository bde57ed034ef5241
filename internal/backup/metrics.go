package backup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expenseledger_backups_created_total",
		Help: "Backup artifacts written successfully.",
	})
	backupsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expenseledger_backups_failed_total",
		Help: "Backup attempts that failed.",
	})
)
