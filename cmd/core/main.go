// The core process manages exactly one lobby session on behalf of a
// supervising worker: it boots, hands the worker a handshake, waits for a
// lobby assignment, drives the session to its terminal status and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/andre-estevam-brainweb/daas-core/internal/comms"
	"github.com/andre-estevam-brainweb/daas-core/internal/config"
	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
	"github.com/andre-estevam-brainweb/daas-core/internal/lobby"
	"github.com/andre-estevam-brainweb/daas-core/internal/ops"
	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

// maxLifetime is a hard process deadline. A core alive this long was never
// killed by its worker; better to die than leak a bot.
const maxLifetime = 3 * time.Hour

// newGameClient connects the bot account to the game coordinator and returns
// the command/event boundary the session runs against. The Steam login and
// GC wire protocol live outside this repository; deployed builds override
// this hook with the real implementation.
var newGameClient = func(ctx context.Context, bot *store.Bot, log *zap.Logger) (dota.Client, error) {
	return nil, errors.New("no game client implementation linked")
}

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	requestID := cfg.RequestID
	if len(os.Args) > 1 {
		requestID = os.Args[1]
	}
	if requestID == "" {
		return errors.New("attempt to boot core without a request id")
	}

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting core", zap.String("request_id", requestID))

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root, expire := context.WithTimeout(root, maxLifetime)
	defer expire()
	ctx, cancel := context.WithCancel(root)
	defer cancel()

	c, err := comms.Open(ctx, cfg.WorkerURL, requestID, log)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		_ = c.Close()
		return err
	}
	if err := db.AutoMigrate(); err != nil {
		_ = c.Close()
		return err
	}

	var mgr atomic.Pointer[lobby.Manager]
	var bot atomic.Pointer[store.Bot]

	g, gctx := errgroup.WithContext(ctx)

	// Ops surface for the worker/operators to poll.
	srv := &http.Server{
		Addr: cfg.OpsAddr,
		Handler: ops.SetupRoutes(func() (lobby.View, bool) {
			m := mgr.Load()
			if m == nil {
				return lobby.View{}, false
			}
			return m.View(), true
		}),
	}
	g.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutCtx)
	})

	// Worker-initiated commands.
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case env, ok := <-c.Inbound():
				if !ok {
					return nil
				}
				switch env.Type {
				case comms.MsgKillYourself:
					log.Info("worker requested shutdown")
					cancel()
					return nil
				case comms.MsgResendInvite:
					var req comms.ResendInvite
					if err := env.Decode(&req); err != nil {
						log.Warn("bad resend-invite payload", zap.Error(err))
						continue
					}
					if m := mgr.Load(); m != nil {
						if err := m.Invite(gctx, req.AccountID); err != nil {
							log.Warn("re-invite failed",
								zap.Uint64("account_id", req.AccountID), zap.Error(err))
						}
					}
				default:
					log.Warn("unexpected worker message", zap.String("type", string(env.Type)))
				}
			}
		}
	})

	// The session itself.
	g.Go(func() error {
		defer cancel()
		return runSession(gctx, cfg, log, c, db, &mgr, &bot)
	})

	err = g.Wait()
	gracefulShutdown(log, c, db, bot.Load(), mgr.Load())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSession(ctx context.Context, cfg config.Config, log *zap.Logger,
	c *comms.Comms, db *store.DB,
	mgr *atomic.Pointer[lobby.Manager], botSlot *atomic.Pointer[store.Bot]) error {

	if err := c.Send(ctx, comms.MsgBootOK, nil); err != nil {
		return err
	}

	env, err := c.WaitFor(ctx, comms.MsgDotaBotInfo, 20*time.Second)
	if err != nil {
		return err
	}
	var botInfo comms.BotInfo
	if err := env.Decode(&botInfo); err != nil {
		return fmt.Errorf("bad bot-info payload: %w", err)
	}

	bot, err := db.Bots().FindByID(ctx, botInfo.BotID)
	if err != nil {
		return fmt.Errorf("bot %d: %w", botInfo.BotID, err)
	}
	botSlot.Store(bot)
	log.Info("connecting to the game coordinator", zap.String("bot", bot.Username))

	client, err := newGameClient(ctx, bot, log)
	if err != nil {
		return err
	}

	if bot, err = db.Bots().Update(ctx, bot, store.BotStatusPatch(store.BotIdle)); err != nil {
		return err
	}
	botSlot.Store(bot)
	if err := c.Send(ctx, comms.MsgDotaOK, nil); err != nil {
		return err
	}

	env, err = c.WaitFor(ctx, comms.MsgLobbyInfo, 10*time.Minute)
	if err != nil {
		return err
	}
	var lobbyInfo comms.LobbyInfo
	if err := env.Decode(&lobbyInfo); err != nil {
		return fmt.Errorf("bad lobby-info payload: %w", err)
	}

	rec, err := db.Lobbies().FindByID(ctx, lobbyInfo.LobbyID)
	if err != nil {
		return fmt.Errorf("lobby %d: %w", lobbyInfo.LobbyID, err)
	}

	log.Info("creating lobby", zap.String("name", rec.Name))
	m, err := lobby.Create(ctx, lobby.Deps{
		Client:   client,
		Lobbies:  db.Lobbies(),
		Config:   db.Config(),
		Notifier: c,
		Log:      log,
		OnMatchStarted: func(uint64) {
			if b := botSlot.Load(); b != nil {
				if b, err := db.Bots().Update(ctx, b, store.BotStatusPatch(store.BotInMatch)); err == nil {
					botSlot.Store(b)
				}
			}
		},
	}, rec)
	if err != nil {
		return err
	}
	mgr.Store(m)

	if bot, err = db.Bots().Update(ctx, bot, store.BotStatusPatch(store.BotInLobby)); err == nil {
		botSlot.Store(bot)
	}

	final, err := m.WaitUntilResultOrCancellation(ctx)
	if err != nil {
		return err
	}
	log.Info("lobby finished", zap.String("status", string(final)))

	// Give the last notifications a moment to flush before teardown.
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
	return nil
}

// gracefulShutdown tears the collaborators down best-effort, in the order
// the worker expects: channel closed, bot marked offline, lobby left.
func gracefulShutdown(log *zap.Logger, c *comms.Comms, db *store.DB,
	bot *store.Bot, m *lobby.Manager) {

	log.Info("shutting down")
	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()

	if err := c.Close(); err != nil {
		log.Warn("comms close failed", zap.Error(err))
	}
	if bot != nil {
		if _, err := db.Bots().Update(ctx, bot, store.BotStatusPatch(store.BotOffline)); err != nil {
			log.Warn("bot status not reset", zap.Error(err))
		}
	}
	if m != nil {
		if err := m.Shutdown(ctx); err != nil {
			log.Warn("lobby shutdown failed", zap.Error(err))
		}
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
