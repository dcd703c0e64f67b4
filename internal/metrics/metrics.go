package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exported on /metrics. Rejections are labelled by reason so the
// dashboard can tell debounce noise from real contention.
var (
	ScansRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_scans_recorded_total",
		Help: "Attendance events recorded, by applied event type.",
	}, []string{"event_type"})

	ScansRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_scans_rejected_total",
		Help: "Scans rejected before an event was recorded, by reason.",
	}, []string{"reason"})

	NoticesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_notices_published_total",
		Help: "Scan notices handed to the notification queue.",
	})

	NoticePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_notice_publish_failures_total",
		Help: "Queue publish failures after a recorded scan.",
	})
)
