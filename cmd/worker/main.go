package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"presence/internal/config"
	"presence/internal/directory"
	"presence/internal/engine"
	"presence/internal/notify"
	"presence/internal/queue"
	"presence/internal/store"
)

// The worker drains recorded-scan notices from the queue and forwards them
// to the messaging service. Delivery failures are logged and dropped; the
// attendance event is already durable and is never touched from here.
func main() {
	cfg := config.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "presence:scans")
	}

	events := engine.NewPostgresStore(db.Client)
	dir := directory.NewRepository(db.Client)
	notifier := notify.New(cfg.NotifyURL, cfg.NotifySkip)

	if !cfg.NotifySkip {
		if err := notifier.Health(ctx); err != nil {
			log.WithError(err).Warn("notify service not available, will retry per notice")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.WithError(err).Fatal("queue consume init failed")
	}

	log.Info("worker started, waiting for notices")
	for msg := range messages {
		if msg.Type != "scan" {
			continue
		}
		var notice engine.ScanNotice
		if err := json.Unmarshal(msg.Body, &notice); err != nil {
			log.WithError(err).Warn("malformed notice payload")
			continue
		}

		evt, err := events.EventByID(ctx, notice.EventID)
		if err != nil {
			log.WithError(err).WithField("event_id", notice.EventID).Warn("fetch event failed")
			continue
		}
		person, err := dir.PersonByID(ctx, evt.PersonID)
		if err != nil || person == nil {
			log.WithField("person_id", evt.PersonID).Warn("person lookup failed for notice")
			continue
		}

		err = notifier.Send(ctx, notify.ScanNotice{
			EventID:               evt.ID,
			PersonID:              person.ID,
			PersonName:            person.FullName,
			RoleClass:             string(person.RoleClass),
			EventType:             string(evt.Type),
			ScannedAt:             evt.ScannedAt,
			LateMinutes:           evt.LateMinutes,
			EarlyDepartureMinutes: evt.EarlyDepartureMinutes,
		})
		if err != nil {
			log.WithError(err).WithField("event_id", evt.ID).Warn("notice dispatch failed")
			continue
		}
		log.WithField("event_id", evt.ID).Info("notice dispatched")
	}

	log.Info("worker stopped")
}
