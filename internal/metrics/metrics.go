package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consultationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexconsult_consultations_total",
		Help: "Landing page consultations processed, by outcome.",
	}, []string{"outcome"})

	providerLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexconsult_provider_lookups_total",
		Help: "Registry provider lookup attempts, by provider and outcome.",
	}, []string{"provider", "outcome"})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nexconsult_downloads_total",
		Help: "Temporary link downloads, by outcome.",
	}, []string{"outcome"})

	linksActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nexconsult_links_active",
		Help: "Temporary links currently held by the in-memory registry.",
	})
)

// RecordConsultation counts one processed consultation.
func RecordConsultation(outcome string) {
	consultationsTotal.WithLabelValues(outcome).Inc()
}

// RecordProviderLookup counts one provider lookup attempt.
func RecordProviderLookup(provider, outcome string) {
	providerLookupsTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordDownload counts one download attempt against a temporary link.
func RecordDownload(outcome string) {
	downloadsTotal.WithLabelValues(outcome).Inc()
}

// SetActiveLinks reports the current registry size.
func SetActiveLinks(n int) {
	linksActive.Set(float64(n))
}
