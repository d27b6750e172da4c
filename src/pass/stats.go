package pass

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Stats counts what the passes of a pipeline did. All methods are safe for concurrent use and may be called on a
// <nil> Stats, which records nothing.
type Stats struct {
	reg       *prometheus.Registry
	demoted   prometheus.Counter
	converted *prometheus.CounterVec
	changed   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// ---------------------
// ----- Constants -----
// ---------------------

const namespace = "hdemote"

// -------------------
// ----- Globals -----
// -------------------

// ---------------------
// ----- Functions -----
// ---------------------

// NewStats returns a Stats with counters registered on a private registry.
func NewStats() *Stats {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Stats{
		reg: reg,
		demoted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instructions_demoted_total",
			Help:      "Number of half precision instructions replaced by single precision equivalents.",
		}),
		converted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_inserted_total",
			Help:      "Number of conversion instructions inserted, by kind.",
		}, []string{"kind"}),
		changed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "functions_changed_total",
			Help:      "Number of functions modified, by pass.",
		}, []string{"pass"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Time spent running a pass over a whole module.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 10, 7),
		}, []string{"pass"}),
	}
}

// Registry returns the registry holding the counters.
func (st *Stats) Registry() *prometheus.Registry {
	return st.reg
}

// RecordDemotion records demoted replaced instructions, ext inserted fpext and trunc inserted fptrunc
// instructions.
func (st *Stats) RecordDemotion(demoted, ext, trunc int) {
	if st == nil {
		return
	}
	st.demoted.Add(float64(demoted))
	st.converted.WithLabelValues("fpext").Add(float64(ext))
	st.converted.WithLabelValues("fptrunc").Add(float64(trunc))
}

// FunctionChanged records that pass modified a function.
func (st *Stats) FunctionChanged(pass string) {
	if st == nil {
		return
	}
	st.changed.WithLabelValues(pass).Inc()
}

// ObservePass records the time pass took to run over a module.
func (st *Stats) ObservePass(pass string, d time.Duration) {
	if st == nil {
		return
	}
	st.duration.WithLabelValues(pass).Observe(d.Seconds())
}

// Dump writes every non-zero counter to w, one "name{labels} value" line each, sorted by name. Histograms are
// written as their sample count.
func (st *Stats) Dump(w io.Writer) error {
	if st == nil {
		return nil
	}
	families, err := st.reg.Gather()
	if err != nil {
		return fmt.Errorf("could not gather statistics: %w", err)
	}
	lines := make([]string, 0, 8)
	for _, e1 := range families {
		for _, e2 := range e1.GetMetric() {
			switch e1.GetType() {
			case dto.MetricType_COUNTER:
				if v := e2.GetCounter().GetValue(); v != 0 {
					lines = append(lines, fmt.Sprintf("%s%s %g", e1.GetName(), labels(e2), v))
				}
			case dto.MetricType_HISTOGRAM:
				if n := e2.GetHistogram().GetSampleCount(); n != 0 {
					lines = append(lines, fmt.Sprintf("%s_count%s %d", e1.GetName(), labels(e2), n))
				}
			}
		}
	}
	sort.Strings(lines)
	for _, e1 := range lines {
		if _, err := fmt.Fprintln(w, e1); err != nil {
			return err
		}
	}
	return nil
}

// labels returns the label pairs of m in {k="v",...} form, or the empty string.
func labels(m *dto.Metric) string {
	pairs := m.GetLabel()
	if len(pairs) == 0 {
		return ""
	}
	s := make([]string, len(pairs))
	for i1, e1 := range pairs {
		s[i1] = fmt.Sprintf("%s=%q", e1.GetName(), e1.GetValue())
	}
	return "{" + strings.Join(s, ",") + "}"
}
