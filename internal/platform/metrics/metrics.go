package metrics

import (
	"tribunal/contexts/governance/consensus-engine/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements the consensus engine's metrics port with Prometheus
// counters.
type Recorder struct {
	ballots      *prometheus.CounterVec
	ballotWeight *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	actions      *prometheus.CounterVec
}

func NewRecorder(registerer prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Name:      "ballots_cast_total",
			Help:      "Ballots recorded, by subject kind and choice.",
		}, []string{"kind", "choice"}),
		ballotWeight: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Name:      "ballot_weight_total",
			Help:      "Sum of frozen ballot weights, by subject kind and choice.",
		}, []string{"kind", "choice"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Name:      "subjects_resolved_total",
			Help:      "Subjects moved to a terminal status.",
		}, []string{"kind", "status", "resolved_by"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tribunal",
			Name:      "actions_dispatched_total",
			Help:      "Actions dispatched for approved subjects, by outcome.",
		}, []string{"action", "outcome"}),
	}
	for _, collector := range []prometheus.Collector{r.ballots, r.ballotWeight, r.resolutions, r.actions} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) BallotCast(kind entities.SubjectKind, choice entities.Choice, weight uint64) {
	r.ballots.WithLabelValues(string(kind), string(choice)).Inc()
	r.ballotWeight.WithLabelValues(string(kind), string(choice)).Add(float64(weight))
}

func (r *Recorder) SubjectResolved(kind entities.SubjectKind, status entities.SubjectStatus, by entities.ResolvedBy) {
	r.resolutions.WithLabelValues(string(kind), string(status), string(by)).Inc()
}

func (r *Recorder) ActionExecuted(action entities.ActionType, outcome entities.ActionOutcome) {
	r.actions.WithLabelValues(string(action), string(outcome)).Inc()
}
