package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"presence/internal/directory"
	"presence/internal/metrics"
	"presence/internal/queue"
)

// ScanRequest is one badge scan as it arrives from a station.
type ScanRequest struct {
	Token      string
	OperatorID string
	Requested  RequestedType
	// At defaults to the service clock when zero.
	At time.Time
	// AllowedRoles restricts which role classes this station may record.
	// Empty means any class.
	AllowedRoles directory.RoleClassSet
}

// ScanResult is the engine's answer to a recorded scan.
type ScanResult struct {
	EventID               string
	PersonID              string
	PersonName            string
	Applied               EventType
	LateMinutes           int
	EarlyDepartureMinutes int
	// WorkedMinutes is set on an exit that closes a same-day entry.
	WorkedMinutes *int
}

// Service runs the scan pipeline: identity resolution, admission,
// entry/exit inference, punctuality, then one event insert. The per-person
// lock spans the last-event read through the insert so concurrent scans
// for the same person observe one consistent snapshot; scans for
// different people never contend.
type Service struct {
	store    EventStore
	resolver *directory.Resolver
	periods  directory.PeriodSource
	locks    Locker
	notices  queue.Queue
	log      *logrus.Logger
	loc      *time.Location
	lockTTL  time.Duration
	now      func() time.Time
}

// NewService wires the scan pipeline.
func NewService(store EventStore, resolver *directory.Resolver, periods directory.PeriodSource, locks Locker, notices queue.Queue, log *logrus.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		periods:  periods,
		locks:    locks,
		notices:  notices,
		log:      log,
		loc:      loc,
		lockTTL:  10 * time.Second,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ScanNotice is the payload published after a recorded scan for the
// notification worker.
type ScanNotice struct {
	EventID string `json:"event_id"`
}

// RecordScan admits, types, measures, and persists one scan. Duplicate
// scans and lost per-person races come back as typed results
// (DuplicateScanError, ErrConcurrencyConflict), not failures.
func (s *Service) RecordScan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	if req.Token == "" {
		return ScanResult{}, &ValidationError{Field: "token", Reason: "required"}
	}
	switch req.Requested {
	case RequestedEntry, RequestedExit, RequestedAuto:
	case "":
		req.Requested = RequestedAuto
	default:
		return ScanResult{}, &ValidationError{Field: "requested_event_type", Reason: fmt.Sprintf("must be entry, exit or auto, got %q", req.Requested)}
	}

	scannedAt := req.At
	if scannedAt.IsZero() {
		scannedAt = s.now()
	}
	scannedAt = scannedAt.UTC()

	period, err := s.activePeriod(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	person, policy, err := s.resolver.Resolve(ctx, req.Token, req.AllowedRoles)
	if err != nil {
		metrics.ScansRejected.WithLabelValues("identity").Inc()
		return ScanResult{}, err
	}

	date := DateOf(scannedAt, s.loc)
	lockKey := person.ID + ":" + date
	ok, err := s.locks.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return ScanResult{}, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		metrics.ScansRejected.WithLabelValues("conflict").Inc()
		return ScanResult{}, ErrConcurrencyConflict
	}
	defer func() {
		if rerr := s.locks.Release(context.WithoutCancel(ctx), lockKey); rerr != nil {
			s.log.WithError(rerr).WithField("person_id", person.ID).Warn("scan lock release failed")
		}
	}()

	dayEvents, err := s.store.EventsForDay(ctx, person.ID, period.ID, date)
	if err != nil {
		return ScanResult{}, fmt.Errorf("load day events: %w", err)
	}
	var last *Event
	if len(dayEvents) > 0 {
		last = &dayEvents[len(dayEvents)-1]
	}

	if err := Admit(last, scannedAt, policy.DebounceWindow); err != nil {
		metrics.ScansRejected.WithLabelValues("debounce").Inc()
		return ScanResult{}, err
	}

	applied := ResolveType(req.Requested, last)
	punct := ComputePunctuality(applied, scannedAt, policy, s.loc)

	evt := Event{
		ID:                    uuid.NewString(),
		PersonID:              person.ID,
		SupervisorID:          req.OperatorID,
		SchoolPeriodID:        period.ID,
		Date:                  date,
		ScannedAt:             scannedAt,
		Type:                  applied,
		LateMinutes:           punct.LateMinutes,
		EarlyDepartureMinutes: punct.EarlyDepartureMinutes,
		RawToken:              req.Token,
	}
	stored, err := s.store.Insert(ctx, evt)
	if err != nil {
		return ScanResult{}, fmt.Errorf("insert event: %w", err)
	}

	result := ScanResult{
		EventID:               stored.ID,
		PersonID:              person.ID,
		PersonName:            person.FullName,
		Applied:               applied,
		LateMinutes:           punct.LateMinutes,
		EarlyDepartureMinutes: punct.EarlyDepartureMinutes,
	}
	if applied == EventExit {
		if entry := lastEntry(dayEvents); entry != nil {
			worked := WorkedMinutes(entry.ScannedAt, scannedAt)
			result.WorkedMinutes = &worked
		}
	}

	metrics.ScansRecorded.WithLabelValues(string(applied)).Inc()
	s.log.WithFields(logrus.Fields{
		"event_id":   stored.ID,
		"person_id":  person.ID,
		"event_type": applied,
		"late":       punct.LateMinutes,
		"early":      punct.EarlyDepartureMinutes,
	}).Info("scan recorded")

	s.publishNotice(ctx, stored.ID)
	return result, nil
}

// activePeriod enforces the exactly-one-active-period precondition.
func (s *Service) activePeriod(ctx context.Context) (directory.SchoolPeriod, error) {
	periods, err := s.periods.ActivePeriods(ctx)
	if err != nil {
		return directory.SchoolPeriod{}, fmt.Errorf("load active periods: %w", err)
	}
	if len(periods) != 1 {
		return directory.SchoolPeriod{}, fmt.Errorf("%w: found %d", ErrNoActivePeriod, len(periods))
	}
	return periods[0], nil
}

// lastEntry returns the most recent entry event of the day, if any.
func lastEntry(events []Event) *Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == EventEntry {
			return &events[i]
		}
	}
	return nil
}

// publishNotice hands the recorded event to the notification queue.
// Failure is logged and counted, never propagated: the attendance fact is
// already durable.
func (s *Service) publishNotice(ctx context.Context, eventID string) {
	if s.notices == nil {
		return
	}
	body, _ := json.Marshal(ScanNotice{EventID: eventID})
	if err := s.notices.Publish(ctx, queue.Message{Type: "scan", Body: body}); err != nil {
		metrics.NoticePublishFailures.Inc()
		s.log.WithError(err).WithField("event_id", eventID).Warn("notice publish failed")
		return
	}
	metrics.NoticesPublished.Inc()
}
