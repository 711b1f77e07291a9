// Package main is the entry point for the barbershop booking bot
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/bot"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/config"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/gateway"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

const (
	sweepInterval    = 5 * time.Minute
	reminderInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load configuration")
	}

	log := newLogger(cfg)
	log.Info().Str("timezone", cfg.Timezone).Msg("configuration loaded")

	db, err := database.Connect(cfg.DBPath, cfg.Debug)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	store := database.NewStore(db)

	clk, err := clock.NewBusinessClock(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("load timezone")
	}

	// Services.
	staffSvc := services.NewStaffService(store, services.BcryptHasher{})
	avail := services.NewAvailability(store, clk)
	bookingSvc := services.NewBookingService(store, avail, clk, log)
	blockSvc := services.NewBlockService(store, clk)
	clientSvc := services.NewClientService(store)
	statsSvc := services.NewStatsService(store, clk)

	roster, err := config.LoadRoster(cfg.StaffFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.StaffFile).Msg("load staff roster")
	}
	if err := staffSvc.Seed(context.Background(), roster); err != nil {
		log.Fatal().Err(err).Msg("seed staff")
	}
	log.Info().Int("staff", len(roster)).Msg("staff roster seeded")

	// Transport.
	tg, err := gateway.New(cfg.BotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create telegram gateway")
	}
	notifySvc := services.NewNotificationService(tg, store, clk, log)

	// Sessions: expired identities get the closing notice and start
	// over on their next message.
	onExpire := func(s *session.Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		notifySvc.SendSessionExpired(ctx, s.Phone)
	}
	sessions := newSessionStore(cfg, onExpire, log)

	flow := bot.NewBookingFlow(sessions, staffSvc, avail, bookingSvc, notifySvc, tg, clk, log)
	admin := bot.NewAdminPanel(sessions, staffSvc, bookingSvc, blockSvc, clientSvc, statsSvc, notifySvc, tg, clk, log)
	router := bot.NewRouter(sessions, flow, admin, tg, log)
	tg.Bind(router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Move past appointments to history at startup, then periodically.
	if n, err := bookingSvc.SweepExpired(ctx); err != nil {
		log.Error().Err(err).Msg("initial sweep")
	} else if n > 0 {
		log.Info().Int("archived", n).Msg("initial sweep")
	}
	go sweepLoop(ctx, bookingSvc, log)
	go notifySvc.StartReminderWorker(ctx, reminderInterval)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
		tg.Stop()
	}()

	log.Info().Msg("starting bot")
	tg.Start()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Debug {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// newSessionStore picks Redis when configured, in-memory otherwise
func newSessionStore(cfg *config.Config, onExpire session.ExpireFunc, log zerolog.Logger) session.Store {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(session.TTL, onExpire)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis sessions")
	return session.NewRedisStore(client, session.TTL)
}

func sweepLoop(ctx context.Context, booking *services.BookingService, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := booking.SweepExpired(ctx); err != nil {
				log.Error().Err(err).Msg("sweep expired appointments")
			}
		}
	}
}
