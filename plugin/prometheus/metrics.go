package prometheus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultPath = "/metrics"
	defaultAddr = "localhost:9180"
)

// Metrics represents prometheus metrics
type Metrics struct {
	addr           string // where to we listen
	hostname       string
	path           string
	extraLabels    []extraLabel
	latencyBuckets []float64

	registry         *prometheus.Registry
	messageCount     *prometheus.CounterVec
	handshakeLatency *prometheus.HistogramVec
	fleetSize        prometheus.Gauge

	srv *http.Server
	ln  net.Listener
}

type extraLabel struct {
	name  string
	value string
}

// NewMetrics create a new Metrics
func NewMetrics(path, addr string) *Metrics {

	p := path
	if path == "" {
		p = defaultPath
	}
	a := addr
	if addr == "" {
		a = defaultAddr
	}
	return &Metrics{
		path:        p,
		addr:        a,
		extraLabels: []extraLabel{},
	}
}

func (m *Metrics) extraLabelNames() []string {
	names := make([]string, 0, len(m.extraLabels))

	for _, label := range m.extraLabels {
		names = append(names, label.name)
	}

	return names
}

func (m *Metrics) define() {
	if m.latencyBuckets == nil {
		m.latencyBuckets = append(prometheus.DefBuckets, 15, 20, 30, 60, 120, 180, 240, 480, 960)
	}

	var constLabels prometheus.Labels
	if m.hostname != "" {
		constLabels = prometheus.Labels{"hostname": m.hostname}
	}

	extraLabels := m.extraLabelNames()

	m.messageCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "dhcpester_messages_total",
		Help:        "Counter of handshake events by type.",
		ConstLabels: constLabels,
	}, append([]string{"type"}, extraLabels...))

	m.handshakeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "dhcpester_handshake_duration_seconds",
		Help:        "Histogram of the time (in seconds) from the first DHCPDISCOVER of a client to its DHCPACK.",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	}, extraLabels)

	m.fleetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "dhcpester_fleet_size",
		Help:        "Number of clients with an unfinished handshake.",
		ConstLabels: constLabels,
	})

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.messageCount, m.handshakeLatency, m.fleetSize)
}

func (m *Metrics) start() error {
	m.define()

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(m.path, promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))

	m.ln = ln
	m.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("[prometheus] failed to serve metrics: %v", err)
		}
	}()

	return nil
}

// Addr returns the address the metrics are served on
func (m *Metrics) Addr() string {
	if m.ln != nil {
		return m.ln.Addr().String()
	}
	return m.addr
}

func (m *Metrics) stop() error {
	if m.srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.srv.Shutdown(ctx)
}
