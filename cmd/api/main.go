package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"presence/internal/auth"
	"presence/internal/config"
	"presence/internal/directory"
	"presence/internal/engine"
	"presence/internal/httpmiddleware"
	"presence/internal/queue"
	"presence/internal/report"
	"presence/internal/store"
)

func main() {
	cfg := config.Load()
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.WithError(err).Fatal("http server failed")
	}
}

func runHTTP(cfg config.App, log *logrus.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	loc := cfg.Location()

	var notices queue.Queue
	var locks engine.Locker
	if cfg.QueueBackend == "memory" {
		notices = queue.NewInMemory(64)
		locks = engine.NewMemoryLocker()
	} else {
		notices = queue.NewRedisQueue(redisClient.Client, "presence:scans")
		locks = engine.NewRedisLocker(redisClient.Client, "")
	}

	policies, err := policyTable(cfg)
	if err != nil {
		return err
	}

	dir := directory.NewRepository(db.Client)
	resolver := directory.NewResolver(dir, policies)
	events := engine.NewPostgresStore(db.Client)
	scans := engine.NewService(events, resolver, dir, locks, notices, log, loc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/v1/stations/register", func(c *gin.Context) {
		var req struct {
			StationID   string `json:"station_id" binding:"required"`
			StationKind string `json:"station_kind"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.StationKind == "" {
			req.StationKind = "any"
		}
		tokens, err := auth.Issue(req.StationID, req.StationKind, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.StationAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/scans", func(c *gin.Context) {
		var req struct {
			Token      string `json:"token" binding:"required"`
			OperatorID string `json:"operator_id" binding:"required"`
			EventType  string `json:"requested_event_type"`
			Timestamp  string `json:"timestamp"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var at time.Time
		if req.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be RFC3339"})
				return
			}
			at = parsed
		}

		claimsAny, _ := c.Get("claims")
		claims, _ := claimsAny.(auth.Claims)

		result, err := scans.RecordScan(c.Request.Context(), engine.ScanRequest{
			Token:        req.Token,
			OperatorID:   req.OperatorID,
			Requested:    engine.RequestedType(req.EventType),
			At:           at,
			AllowedRoles: allowedRolesFor(claims.StationKind),
		})
		if err != nil {
			writeScanError(c, err)
			return
		}

		resp := gin.H{
			"event_id":                result.EventID,
			"person_id":               result.PersonID,
			"person_name":             result.PersonName,
			"event_type_applied":      result.Applied,
			"late_minutes":            result.LateMinutes,
			"early_departure_minutes": result.EarlyDepartureMinutes,
		}
		if result.WorkedMinutes != nil {
			resp["worked_minutes"] = *result.WorkedMinutes
		}
		c.JSON(http.StatusCreated, resp)
	})

	authGroup.GET("/reports/daily", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = engine.DateOf(time.Now(), loc)
		} else if _, err := time.Parse(engine.DateLayout, date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		filter := directory.RoleClassSet{}
		if rc := c.Query("role_class"); rc != "" {
			parsed, err := directory.ParseRoleClass(rc)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			filter = directory.NewRoleClassSet(parsed)
		}

		people, err := dir.ListActive(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		dayEvents, err := events.EventsForDate(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report.BuildDaily(date, people, dayEvents, filter))
	})

	authGroup.GET("/persons/:id/attendance", func(c *gin.Context) {
		personID := c.Param("id")
		from := c.Query("from")
		to := c.Query("to")
		dates, err := report.DatesBetween(from, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		person, err := dir.PersonByID(c.Request.Context(), personID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if person == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
			return
		}

		personEvents, err := events.EventsForPersonRange(c.Request.Context(), personID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report.BuildRange(personID, from, to, personEvents, dates))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced shutdown")
	}
	log.Info("server exited")
	return nil
}

// allowedRolesFor maps a station kind to the role classes it may record.
// Teacher stations and staff stations are physically separate scanners;
// "any" is for the back-office desk.
func allowedRolesFor(kind string) directory.RoleClassSet {
	switch kind {
	case "teacher":
		return directory.NewRoleClassSet(directory.RoleTeacher)
	case "staff":
		return directory.NewRoleClassSet(directory.RoleSupervisor, directory.RoleAccountant, directory.RoleAdministrator)
	default:
		return directory.RoleClassSet{}
	}
}

// writeScanError maps the engine's typed results onto HTTP responses. A
// debounced duplicate tells the operator how long to wait; a role mismatch
// is kept distinct from an unknown token.
func writeScanError(c *gin.Context, err error) {
	var dup *engine.DuplicateScanError
	if errors.As(err, &dup) {
		c.JSON(http.StatusConflict, gin.H{
			"error":               "duplicate_scan_rejected",
			"retry_after_seconds": dup.RemainingSeconds,
		})
		return
	}
	var roleErr *directory.RoleNotAuthorizedError
	if errors.As(err, &roleErr) {
		c.JSON(http.StatusForbidden, gin.H{"error": "role_not_authorized", "role_class": roleErr.RoleClass})
		return
	}
	var valErr *engine.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
		return
	}
	switch {
	case errors.Is(err, directory.ErrIdentityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "identity_not_found"})
	case errors.Is(err, engine.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrency_conflict", "retryable": true})
	case errors.Is(err, engine.ErrNoActivePeriod):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no_active_period"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// policyTable builds the per-role-class policy from configuration.
func policyTable(cfg config.App) (directory.PolicyTable, error) {
	teacherArrival, err := directory.ParseTimeOfDay(cfg.TeacherArrival)
	if err != nil {
		return nil, err
	}
	teacherDeparture, err := directory.ParseTimeOfDay(cfg.TeacherDeparture)
	if err != nil {
		return nil, err
	}
	staffArrival, err := directory.ParseTimeOfDay(cfg.StaffArrival)
	if err != nil {
		return nil, err
	}
	staffDeparture, err := directory.ParseTimeOfDay(cfg.StaffDeparture)
	if err != nil {
		return nil, err
	}

	teacher := directory.Policy{
		ExpectedArrival:   teacherArrival,
		ExpectedDeparture: teacherDeparture,
		DebounceWindow:    cfg.TeacherDebounce,
	}
	staff := directory.Policy{
		ExpectedArrival:   staffArrival,
		ExpectedDeparture: staffDeparture,
		DebounceWindow:    cfg.StaffDebounce,
	}
	return directory.PolicyTable{
		directory.RoleTeacher:       teacher,
		directory.RoleSupervisor:    staff,
		directory.RoleAccountant:    staff,
		directory.RoleAdministrator: staff,
	}, nil
}
