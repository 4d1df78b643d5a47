package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var framesRendered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "puckpulse_frames_rendered_total",
	Help: "Number of frames drawn into the back buffer.",
})
