package cli

import (
	"time"

	"budget/internal/amqp"
	"budget/internal/assistant"
	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/store"
)

const cacheSweepInterval = time.Minute

// Services is the set of domain services wired over one store.
type Services struct {
	Notifier     *services.Notifier
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	BudgetView   *services.BudgetAggregator
	Goals        *services.GoalTracker
	Dashboard    *services.DashboardAggregator
	Assistant    *services.AssistantService

	caches    *cache.Manager
	publisher *amqp.Client
	logger    *log.Logger
}

// InitServices builds the services used by the server and budgetctl. Ledger
// events are published to AMQP when it is configured; a broker that cannot
// be reached is logged and skipped.
func InitServices(logger *log.Logger, cfg *config.Config, st store.Store) *Services {
	s := &Services{logger: logger}

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events will not be published", log.FieldError, err)
		} else {
			s.publisher = client
			publisher = client
		}
	}
	s.Notifier = services.NewNotifier(publisher, logger)

	dashCache := cache.NewLRUCache[core.DashboardSummary](cfg.CacheSize, cfg.CacheTTL)
	monthCache := cache.NewLRUCache[core.BudgetMonth](cfg.CacheSize, cfg.CacheTTL)
	s.caches = cache.NewManager(logger)
	s.caches.Register(dashCache)
	s.caches.Register(monthCache)
	s.caches.StartCleanup(cacheSweepInterval)

	s.Dashboard = services.NewDashboardAggregator(st, st, st, logger).WithCache(dashCache)
	s.BudgetView = services.NewBudgetAggregator(st, st).WithCache(monthCache)
	s.Transactions = services.NewTransactionService(st, s.Notifier, logger)
	s.Budgets = services.NewBudgetService(st, s.Notifier, logger)
	s.Goals = services.NewGoalTracker(st, s.Notifier, logger)

	s.Notifier.Subscribe(s.Dashboard.Invalidate)
	s.Notifier.Subscribe(s.BudgetView.Invalidate)

	var completer services.Completer
	if cfg.AssistantEnabled() {
		completer = assistant.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
		logger.Info("Financial assistant enabled", "model", cfg.LLMModel)
	}
	s.Assistant = services.NewAssistantService(completer, logger)
	return s
}

// Close stops the cache sweeper and the AMQP publisher.
func (s *Services) Close() {
	s.caches.Stop()
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
	}
}
