package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoflow_uploads_total",
		Help: "Accepted video uploads",
	})
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videoflow_classifications_total",
		Help: "Finished classification runs by terminal status",
	}, []string{"status"})
	PipelineInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videoflow_pipeline_in_flight",
		Help: "Classification runs currently in progress",
	})
	BytesStreamedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videoflow_streamed_bytes_total",
		Help: "Bytes served by the stream endpoint",
	})
)

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
