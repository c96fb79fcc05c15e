package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/config"
	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/eventhandler"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
	"github.com/alem-hub/mentoria-hub/internal/domain/session"
	"github.com/alem-hub/mentoria-hub/internal/domain/shared"
	"github.com/alem-hub/mentoria-hub/internal/infrastructure/messaging"
	httpapi "github.com/alem-hub/mentoria-hub/internal/interface/http"
	"github.com/alem-hub/mentoria-hub/internal/interface/http/handlers"
	"github.com/alem-hub/mentoria-hub/pkg/timeutil"
)

// EventBus is the bus the binaries publish through; both the in-memory and
// the Redis bus satisfy it.
type EventBus interface {
	shared.EventBus
	Close() error
}

// NewEventBus builds the in-memory bus, or the Redis Pub/Sub bus when
// configured, and subscribes the audit and refusal penalty handlers.
func NewEventBus(cfg *config.Config, stores *Stores, log *zap.Logger) (EventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log

	var bus EventBus
	if cfg.Redis.PubSub && stores.Cache != nil {
		rb, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(stores.Cache.Client()),
			ChannelName:    cfg.Redis.PubSubChannel,
			LocalBusConfig: local,
			Logger:         log,
		})
		if err != nil {
			return nil, fmt.Errorf("redis event bus: %w", err)
		}
		bus = rb
	} else {
		bus = messaging.NewInMemoryEventBus(local)
	}

	if err := eventhandler.Register(bus,
		eventhandler.NewSessionAuditHandler(log),
		eventhandler.NewRefusalPenaltyHandler(stores.Penalties, log),
	); err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("register event handlers: %w", err)
	}

	return bus, nil
}

// NewApprovalEngine builds the engine with the configured lead time thresholds.
func NewApprovalEngine(cfg *config.Config, clock timeutil.Clock, events shared.EventPublisher) (*session.ApprovalEngine, error) {
	policy := session.LeadTimePolicy{Priority: cfg.Approval.PriorityLead, Minimum: cfg.Approval.MinimumLead}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return session.NewApprovalEngine(clock, events, session.WithLeadTimePolicy(policy)), nil
}

// NewLifecycle builds the session state machine with the configured windows.
func NewLifecycle(cfg *config.Config, clock timeutil.Clock, events shared.EventPublisher) *session.Lifecycle {
	return session.NewLifecycle(clock, events, session.WithWindows(Windows(cfg)))
}

// Windows returns the configured lifecycle windows.
func Windows(cfg *config.Config) session.Windows {
	return session.Windows{
		StartLead:   cfg.Approval.StartLead,
		StartGrace:  cfg.Approval.StartGrace,
		FinishAfter: cfg.Approval.FinishAfter,
	}
}

// HTTPDependencies builds every command and query handler the REST API serves.
func HTTPDependencies(cfg *config.Config, stores *Stores, events shared.EventPublisher, clock timeutil.Clock, log *zap.Logger) (httpapi.Dependencies, error) {
	ids := shared.UUIDGenerator{}

	engine, err := NewApprovalEngine(cfg, clock, events)
	if err != nil {
		return httpapi.Dependencies{}, err
	}
	lifecycle := NewLifecycle(cfg, clock, events)
	windows := Windows(cfg)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if stores.DB != nil {
		health.AddCheck("postgres", handlers.NewDatabaseCheck(stores.DB))
	}
	if stores.Cache != nil {
		health.AddCheck("redis", handlers.NewCacheCheck(stores.Cache))
	}

	return httpapi.Dependencies{
		RegisterUser:   command.NewRegisterUserHandler(stores.Users, stores.Calendars, stores.Plans, ids, clock, events),
		Login:          command.NewLoginHandler(stores.Users),
		Slots:          command.NewSlotHandler(stores.Users, stores.Calendars, stores.SlotCache, ids, clock, events),
		RequestSession: command.NewRequestSessionHandler(stores.Users, stores.Sessions, ids, clock, events),
		ApproveSession: command.NewApproveSessionHandler(stores.Calendars, stores.Sessions, engine),
		ChangeStatus:   command.NewChangeSessionStatusHandler(stores.Sessions, lifecycle),
		SubmitFeedback: command.NewSubmitFeedbackHandler(stores.Users, stores.Sessions, session.NewFeedbackService(clock, ids, events)),
		Goals:          command.NewGoalHandler(stores.Plans, ids, clock, events),

		GetSession:       query.NewGetSessionHandler(stores.Sessions, clock, windows),
		ListSessions:     query.NewListSessionsHandler(stores.Sessions, clock, windows),
		ListSlots:        query.NewListSlotsHandler(stores.Calendars, stores.SlotCache, cfg.Redis.SlotCacheTTL, clock),
		GetStudyProgress: query.NewGetStudyProgressHandler(stores.Plans, clock),
		CalendarFeed:     query.NewCalendarFeedHandler(stores.Users, stores.Calendars, stores.Sessions, clock, windows),

		HealthChecker: health,
		Logger:        log,
	}, nil
}

// HTTPConfig maps the configuration onto the server settings.
func HTTPConfig(cfg *config.Config) httpapi.Config {
	c := httpapi.DefaultConfig()
	c.Host = cfg.HTTP.Host
	c.Port = cfg.HTTP.Port
	c.ReadTimeout = cfg.HTTP.ReadTimeout
	c.WriteTimeout = cfg.HTTP.WriteTimeout
	c.IdleTimeout = cfg.HTTP.IdleTimeout
	c.RequestTimeout = cfg.HTTP.RequestTimeout
	c.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	return c
}
