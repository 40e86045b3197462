// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface handlers and services record
// against.
type Recorder interface {
	RecordHTTPStatus(statusCode int)
	RecordLeaveDecision(decision string)
	RecordAttendanceEvent(eventType string)
	RecordSMSOutcome(outcome string)
	RecordStaffLoginFailure()
	RecordResidentCodeFailure()
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	httpStatus       *prometheus.CounterVec
	leaveDecisions   *prometheus.CounterVec
	attendanceEvents *prometheus.CounterVec
	smsOutcomes      *prometheus.CounterVec
	staffLoginFail   prometheus.Counter
	residentCodeFail prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterops_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		leaveDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterops_leave_decisions_total",
			Help: "Leave request transitions by decision (approve, deny, check_in).",
		}, []string{"decision"}),
		attendanceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterops_attendance_events_total",
			Help: "Attendance events recorded, by type.",
		}, []string{"event_type"}),
		smsOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelterops_sms_outcomes_total",
			Help: "Approval SMS attempts by outcome (sent, skipped, failed).",
		}, []string{"outcome"}),
		staffLoginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shelterops_staff_login_failures_total",
			Help: "Failed staff login attempts.",
		}),
		residentCodeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shelterops_resident_code_failures_total",
			Help: "Failed resident code authentications. A spike means someone is guessing codes.",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.leaveDecisions,
		c.attendanceEvents,
		c.smsOutcomes,
		c.staffLoginFail,
		c.residentCodeFail,
	)

	return c
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLeaveDecision counts a leave workflow transition.
func (c *Collector) RecordLeaveDecision(decision string) {
	c.leaveDecisions.WithLabelValues(decision).Inc()
}

// RecordAttendanceEvent counts a recorded check-in or check-out.
func (c *Collector) RecordAttendanceEvent(eventType string) {
	c.attendanceEvents.WithLabelValues(eventType).Inc()
}

// RecordSMSOutcome counts an approval SMS attempt outcome.
func (c *Collector) RecordSMSOutcome(outcome string) {
	c.smsOutcomes.WithLabelValues(outcome).Inc()
}

// RecordStaffLoginFailure counts a failed staff login.
func (c *Collector) RecordStaffLoginFailure() {
	c.staffLoginFail.Inc()
}

// RecordResidentCodeFailure counts a failed resident code attempt.
func (c *Collector) RecordResidentCodeFailure() {
	c.residentCodeFail.Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ Recorder = (*Collector)(nil)
