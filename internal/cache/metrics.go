// internal/cache/metrics.go
package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "partnerlink_catalog_cache_lookups_total",
		Help: "Marketplace catalog cache lookups by result",
	},
	[]string{"result"},
)
