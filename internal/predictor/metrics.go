package predictor

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chempredd",
			Subsystem: "predictor",
			Name:      "predictions_total",
			Help:      "Total prediction requests by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	rowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chempredd",
			Subsystem: "predictor",
			Name:      "rows_total",
			Help:      "Total compound rows run through a network",
		},
	)

	modelLoadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chempredd",
			Subsystem: "predictor",
			Name:      "model_loads_total",
			Help:      "Total network weight loads",
		},
	)

	predictDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chempredd",
			Subsystem: "predictor",
			Name:      "predict_duration_seconds",
			Help:      "End-to-end duration of the prediction pipeline",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(predictionsTotal, rowsTotal, modelLoadsTotal, predictDuration)
}
