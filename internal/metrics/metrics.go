package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "supportbot"

// Recorder owns the router's Prometheus collectors. A nil *Recorder is valid
// and records nothing, so tests and the CLI can run without a registry.
type Recorder struct {
	registry *prometheus.Registry

	turns              *prometheus.CounterVec
	turnDuration       *prometheus.HistogramVec
	fallbacks          *prometheus.CounterVec
	toolCalls          *prometheus.CounterVec
	agentIterations    prometheus.Histogram
	completionFailures *prometheus.CounterVec
	retrievalHits      prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Handled turns by classified intent and branch.",
		}, []string{"intent", "branch"}),
		turnDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of one turn by branch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"branch"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Canned or degraded replies by branch and failure kind.",
		}, []string{"branch", "kind"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		agentIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_iterations",
			Help:      "Model turns used by the agent loop per request.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}),
		completionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_failures_total",
			Help:      "Failed completion service calls by stage.",
		}, []string{"stage"}),
		retrievalHits: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_passages",
			Help:      "Passages returned per knowledge base search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}),
	}
}

// Registry exposes the gatherer for the /metrics handler.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Turn(intent, branch string, took time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(intent, branch).Inc()
	r.turnDuration.WithLabelValues(branch).Observe(took.Seconds())
}

func (r *Recorder) Fallback(branch, kind string) {
	if r == nil || kind == "" {
		return
	}
	r.fallbacks.WithLabelValues(branch, kind).Inc()
}

// ToolCall counts one invocation; outcome is "ok" or the failure kind.
func (r *Recorder) ToolCall(tool, outcome string) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (r *Recorder) AgentIterations(n int) {
	if r == nil {
		return
	}
	r.agentIterations.Observe(float64(n))
}

func (r *Recorder) CompletionFailure(stage string) {
	if r == nil {
		return
	}
	r.completionFailures.WithLabelValues(stage).Inc()
}

func (r *Recorder) RetrievalPassages(n int) {
	if r == nil {
		return
	}
	r.retrievalHits.Observe(float64(n))
}
