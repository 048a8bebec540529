package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"daya/internal/calendar"
	"daya/internal/config"
	"daya/internal/database"
	"daya/internal/kv"
	"daya/internal/metrics"
	"daya/internal/services"
	"daya/internal/sharedstore"
	"daya/internal/telegram"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// sharedStore is a kv.Store the widget reads that the app must close.
type sharedStore interface {
	kv.Store
	Close() error
}

type Application struct {
	config   *config.Config
	db       *database.Database
	shared   sharedStore
	services *services.ServiceManager
	cron     *cron.Cron
	bot      *telegram.Bot
}

// New opens the primary database and the shared store and builds the
// services. A shared store that cannot be opened is replaced by
// kv.Unavailable: the app keeps working, the widget shows defaults and
// reset is refused.
func New(cfg *config.Config) (*Application, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	repo := database.NewRepository(db)

	var sharedKV kv.Store = kv.Unavailable{}
	shared, err := openShared(cfg)
	if err != nil {
		log.Printf("⚠️ shared store unavailable, widget data will not be shared: %v", err)
	} else {
		sharedKV = shared
	}

	loc := cfg.Location()
	cal := calendar.New(loc, nil)
	serviceManager := services.NewServiceManager(kv.Mirrored(repo, sharedKV), sharedKV, cal, services.Options{
		TargetTotal: cfg.Tracker.TargetTotal,
		SentLog:     repo,
	})

	return &Application{
		config:   cfg,
		db:       db,
		shared:   shared,
		services: serviceManager,
		cron:     cron.New(cron.WithLocation(loc)),
	}, nil
}

// openShared opens the configured shared store backend. The SQLite backend
// can be opened by the server and the CLI at the same time; Badger allows a
// single process.
func openShared(cfg *config.Config) (sharedStore, error) {
	switch cfg.Database.SharedBackend {
	case config.SharedBadger:
		store, err := sharedstore.Open(sharedstore.DefaultConfig(cfg.Database.SharedPath))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		db, err := database.New(cfg.Database.SharedPath)
		if err != nil {
			return nil, fmt.Errorf("open shared database: %w", err)
		}
		return database.NewRepository(db), nil
	}
}

// Services exposes the service layer to the CLI.
func (a *Application) Services() *services.ServiceManager {
	return a.services
}

// Run starts the bot, the cron jobs and the metrics endpoint and blocks until
// ctx is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.config.RequireTelegram(); err != nil {
		return err
	}

	bot, err := telegram.NewBot(a.config.Telegram.Token, a.config.Telegram.ChatID, a.services)
	if err != nil {
		return err
	}
	a.bot = bot
	a.services.SetNotificationSender(bot)
	a.services.Live.OnUpdate(bot.UpdateLiveStatus)

	if err := a.setupCronJobs(); err != nil {
		return err
	}

	log.Println("🚀 starting daya...")
	a.services.Widget.Refresh()
	bot.SendMessageOrLogError(telegram.Welcome(a.services.Habits, a.services.Progress.Today()))
	if status, _ := a.services.Live.Refresh(); status.Active {
		bot.UpdateLiveStatus(status)
	}

	server := &http.Server{
		Addr:              ":" + a.config.Server.Port,
		Handler:           a.httpHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bot.Start(ctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("🌐 metrics on :%s/metrics", a.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.cron.Start()
		<-ctx.Done()
		<-a.cron.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Printf("✅ daya running. Bot: @%s", bot.GetUsername())
	return g.Wait()
}

func (a *Application) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (a *Application) setupCronJobs() error {
	jobs := []struct {
		spec string
		name string
		fn   func()
	}{
		// reminders and quotes are checked every minute
		{"* * * * *", "notifications", a.services.Notification.CheckAndSendNotifications},
		{a.config.Schedule.WidgetRefresh, "widget refresh", func() { a.services.Widget.Refresh() }},
		{"0 0 * * *", "day rollover", a.rollover},
		{a.config.Schedule.DailySummary, "daily summary", a.services.Notification.SendDailySummary},
	}

	for _, job := range jobs {
		if _, err := a.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}
	return nil
}

// rollover runs at local midnight: the widget and live status move to the
// new day and old notification log rows are dropped.
func (a *Application) rollover() {
	log.Println("🌅 new day")
	a.services.Widget.Refresh()
	a.services.Live.Refresh()
	a.services.Notification.PruneLog()
}

func (a *Application) Stop() error {
	log.Println("🛑 stopping daya...")

	var errs []error
	if a.shared != nil {
		if err := a.shared.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close shared store: %w", err))
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		log.Printf("⚠️ %v", err)
		return err
	}
	log.Println("✅ stopped")
	return nil
}
