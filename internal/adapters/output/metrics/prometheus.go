package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus records light traffic as prometheus counters.
type Prometheus struct {
	reads        *prometheus.CounterVec
	writes       *prometheus.CounterVec
	decodeFaults prometheus.Counter
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myko_state_reads_total",
			Help: "State reads by source (api or write echo).",
		}, []string{"source"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "myko_state_writes_total",
			Help: "State writes by result.",
		}, []string{"result"}),
		decodeFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "myko_decode_faults_total",
			Help: "Device reports missing fields their capabilities require.",
		}),
	}
	reg.MustRegister(p.reads, p.writes, p.decodeFaults)
	return p
}

func (p *Prometheus) ObserveRead(suppressed bool) {
	source := "api"
	if suppressed {
		source = "echo"
	}
	p.reads.WithLabelValues(source).Inc()
}

func (p *Prometheus) ObserveWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.writes.WithLabelValues(result).Inc()
}

func (p *Prometheus) ObserveDecodeFault() {
	p.decodeFaults.Inc()
}
