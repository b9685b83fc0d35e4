package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentmate"

// Metrics holds all Prometheus metrics for the billing core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RemotePushes     *prometheus.CounterVec
	RemoteSnapshots  *prometheus.CounterVec
	LocalWriteErrors prometheus.Counter
	Tenants          *prometheus.GaugeVec
	PaymentsRecorded *prometheus.CounterVec
	SheetSyncs       *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RemotePushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "remote_pushes_total",
			Help:      "Total number of tenant collection pushes to the remote directory by status.",
		}, []string{"status"}), // status: ok, error
		RemoteSnapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "remote_snapshots_total",
			Help:      "Total number of remote snapshots handled by outcome.",
		}, []string{"outcome"}), // outcome: seeded, replaced, ignored
		LocalWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "local_write_errors_total",
			Help:      "Total number of failed writes to the local store.",
		}),
		Tenants: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tenants",
			Name:      "count",
			Help:      "Number of tenants by status.",
		}, []string{"status"}),
		PaymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "payments_total",
			Help:      "Total number of record attempts by outcome.",
		}, []string{"outcome"}), // outcome: created, pending, already_synced
		SheetSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sheets",
			Name:      "syncs_total",
			Help:      "Total number of spreadsheet webhook pushes by status.",
		}, []string{"status"}), // status: ok, error
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePush records the result of a remote push.
func (m *Metrics) ObservePush(err error) {
	if m == nil {
		return
	}
	m.RemotePushes.WithLabelValues(status(err)).Inc()
}

// ObserveSnapshot records how a remote snapshot was handled.
func (m *Metrics) ObserveSnapshot(outcome string) {
	if m == nil {
		return
	}
	m.RemoteSnapshots.WithLabelValues(outcome).Inc()
}

// ObserveLocalWrite records a failed local write.
func (m *Metrics) ObserveLocalWrite(err error) {
	if m == nil || err == nil {
		return
	}
	m.LocalWriteErrors.Inc()
}

// SetTenants updates the tenant gauges.
func (m *Metrics) SetTenants(active, deleted int) {
	if m == nil {
		return
	}
	m.Tenants.WithLabelValues("active").Set(float64(active))
	m.Tenants.WithLabelValues("deleted").Set(float64(deleted))
}

// ObservePayment records a ledger outcome.
func (m *Metrics) ObservePayment(outcome string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(outcome).Inc()
}

// ObserveSheetSync records the result of a spreadsheet push.
func (m *Metrics) ObserveSheetSync(err error) {
	if m == nil {
		return
	}
	m.SheetSyncs.WithLabelValues(status(err)).Inc()
}
