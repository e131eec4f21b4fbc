package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessionauth"

// Метки результата операций.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics: счётчики операций AuthService. Методы безопасны на nil.
type Metrics struct {
	registrations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	logouts        *prometheus.CounterVec
	resetsIssued   *prometheus.CounterVec
	resetsConsumed *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	vec := func(name, help string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{"result"})
	}
	return &Metrics{
		registrations:  vec("registrations_total", "User registrations by result."),
		logins:         vec("logins_total", "Login attempts by result."),
		logouts:        vec("logouts_total", "Logout attempts by result."),
		resetsIssued:   vec("reset_tokens_issued_total", "Password reset token requests by result."),
		resetsConsumed: vec("reset_tokens_consumed_total", "Password reset token presentations by result."),
	}
}

func (m *Metrics) Registration(result string) {
	if m != nil {
		m.registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Logout(result string) {
	if m != nil {
		m.logouts.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ResetIssued(result string) {
	if m != nil {
		m.resetsIssued.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ResetConsumed(result string) {
	if m != nil {
		m.resetsConsumed.WithLabelValues(result).Inc()
	}
}
