// cmd/push-agent/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"push-agent/internal/backend"
	"push-agent/internal/common/config"
	"push-agent/internal/common/database"
	"push-agent/internal/common/logger"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi/redisbridge"
	"push-agent/internal/store"
	"push-agent/internal/subscription"
)

// app bundles the collaborators every subcommand needs.
type app struct {
	cfg     *config.Config
	rdb     *database.RedisClient
	bridge  *redisbridge.Bridge
	mirror  *store.Mirror
	api     backend.API
	profile platform.Profile
	log     logger.Logger
	zapLog  *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	if err := rdb.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &app{
		cfg:    cfg,
		rdb:    rdb,
		bridge: redisbridge.NewBridge(rdb.GetClient(), log),
		mirror: store.NewMirror(store.NewRedisStore(rdb.GetClient()), log),
		api: backend.NewClient(
			cfg.Backend.BaseURL,
			cfg.Backend.BearerToken,
			config.GetDuration(cfg.Backend.Timeout),
			log,
		),
		profile: platform.Detect(platform.EnvironmentFromOS()),
		log:     log,
		zapLog:  zapLog,
	}, nil
}

func (a *app) close() {
	a.rdb.Close()
	a.zapLog.Sync()
}

func (a *app) manager() *subscription.Manager {
	env := platform.EnvironmentFromOS()
	mgrCfg := subscription.LoadConfig()
	mgrCfg.SubscribeTimeout = config.GetDuration(a.cfg.Push.SubscribeTimeout)
	mgrCfg.UserAgent = env.UserAgent
	return subscription.NewManager(mgrCfg, a.bridge, a.api, a.mirror, a.profile, a.log)
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func help() {
	fmt.Println(`Usage: push-agent <command> [flags]

Commands:
  enable      Enable push notifications for a user
  disable     Disable push notifications and tear down the subscription
  preference  Update the receive-notifications preference
  status      Print the mirrored identity, preference and subscription
  send        Publish a test payload into the delivery stream`)
}

func main() {
	enableCmd := flag.NewFlagSet("enable", flag.ExitOnError)
	preferenceCmd := flag.NewFlagSet("preference", flag.ExitOnError)
	sendCmd := flag.NewFlagSet("send", flag.ExitOnError)

	// Enable command flags
	userID := enableCmd.String("user", "", "Signed-in user ID (required)")
	receive := enableCmd.Bool("receive", true, "Initial receive-notifications preference")

	// Preference command flags
	receivePref := preferenceCmd.Bool("receive", true, "Receive notifications")

	// Send command flags
	payload := sendCmd.String("payload", "", "Raw payload to publish (JSON or plain text)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "enable":
		enableCmd.Parse(os.Args[2:])
		if *userID == "" {
			fmt.Println("Error: -user is required for enable.")
			enableCmd.Usage()
			os.Exit(1)
		}
		result, err := a.manager().Enable(ctx, *userID, *receive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printJSON(result)

	case "disable":
		advisories := a.manager().Disable(ctx)
		printJSON(map[string]interface{}{
			"disabled":   true,
			"advisories": advisories,
		})

	case "preference":
		preferenceCmd.Parse(os.Args[2:])
		a.manager().SetPreference(ctx, *receivePref)
		printJSON(map[string]interface{}{"receive": *receivePref})

	case "status":
		snapshot := a.mirror.Snapshot(ctx)
		sub, err := a.bridge.GetSubscription(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printJSON(map[string]interface{}{
			"identity":      snapshot.Identity,
			"identityKnown": snapshot.IdentityKnown,
			"receive":       snapshot.Receive,
			"subscription":  sub,
		})

	case "send":
		sendCmd.Parse(os.Args[2:])
		if *payload == "" {
			fmt.Println("Error: -payload is required for send.")
			sendCmd.Usage()
			os.Exit(1)
		}
		if err := a.bridge.PublishPush(ctx, []byte(*payload)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Payload published.")

	default:
		help()
		os.Exit(1)
	}
}
