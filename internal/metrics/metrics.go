package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	PingsIngested prometheus.Counter
	NearbyQueries prometheus.Counter

	LoginAttempts *prometheus.CounterVec // result label: success|failure|rate_limited

	BusStateResolutions *prometheus.CounterVec // source label: live|history
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustrack_location_pings_total",
			Help: "Total device location pings ingested.",
		}),
		NearbyQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustrack_nearby_queries_total",
			Help: "Total bounding-box nearby queries served.",
		}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bustrack_login_attempts_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		BusStateResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bustrack_bus_state_resolutions_total",
			Help: "Bus state resolutions by source (live fields or daily history).",
		}, []string{"source"}),
	}

	reg.MustRegister(
		c.PingsIngested, c.NearbyQueries,
		c.LoginAttempts, c.BusStateResolutions,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
