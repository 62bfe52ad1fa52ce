package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	Namespace = "StripeFS"
)

var (
	Gather = prometheus.NewRegistry()

	XmitsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "xmits_in_progress",
			Help:      "Number of striped block reconstruction tasks currently transmitting.",
		})

	ReconstructionTaskCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "tasks_total",
			Help:      "Counter of striped block reconstruction tasks by result.",
		}, []string{"result"})

	ReconstructedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "reconstructed_bytes",
			Help:      "Total bytes decoded for reconstruction targets.",
		})

	StripedReadTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "striped_read_timeouts",
			Help:      "Counter of per-slice reads that exceeded the read timeout.",
		})

	StripedReadFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "striped_read_failures",
			Help:      "Counter of per-slice reads that failed.",
		})

	CorruptedBlocksReported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "reconstruction",
			Name:      "corrupted_blocks_reported",
			Help:      "Counter of (block, peer) corruption records reported to the controller.",
		})

	connectionGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "net",
			Name:      "connections",
			Help:      "Number of open peer connections.",
		})

	bytesInCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "net",
			Name:      "bytes_in",
			Help:      "Total bytes read from peers.",
		})

	bytesOutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "net",
			Name:      "bytes_out",
			Help:      "Total bytes written to peers.",
		})
)

func init() {
	Gather.MustRegister(XmitsInProgress)
	Gather.MustRegister(ReconstructionTaskCounter)
	Gather.MustRegister(ReconstructedBytes)
	Gather.MustRegister(StripedReadTimeouts)
	Gather.MustRegister(StripedReadFailures)
	Gather.MustRegister(CorruptedBlocksReported)
	Gather.MustRegister(connectionGauge)
	Gather.MustRegister(bytesInCounter)
	Gather.MustRegister(bytesOutCounter)
	Gather.MustRegister(collectors.NewGoCollector())
}

func ConnectionOpen() {
	connectionGauge.Inc()
}

func ConnectionClose() {
	connectionGauge.Dec()
}

func BytesIn(n int64) {
	bytesInCounter.Add(float64(n))
}

func BytesOut(n int64) {
	bytesOutCounter.Add(float64(n))
}
