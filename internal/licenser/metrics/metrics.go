package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the licensing core. Registered on the default registry and
// exposed via /metrics.
var (
	KeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "licenser",
		Name:      "keys_generated_total",
		Help:      "Number of signing key pairs generated.",
	})

	CertificatesImported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "licenser",
		Name:      "certificates_imported_total",
		Help:      "Number of PKCS#12 certificates imported.",
	})

	LicensesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "licenser",
		Name:      "licenses_issued_total",
		Help:      "Number of licenses generated and signed.",
	})

	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "licenser",
		Name:      "validations_total",
		Help:      "License validations by diagnostic result.",
	}, []string{"result"})

	DocumentsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "licenser",
		Name:      "documents_released_total",
		Help:      "Customer license documents released.",
	})
)
