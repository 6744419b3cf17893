package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eralogue/eralogue/config"
	internalConfig "github.com/eralogue/eralogue/internal/config"
	"github.com/eralogue/eralogue/internal/logger/zap"
	"github.com/eralogue/eralogue/internal/manager"
	"github.com/eralogue/eralogue/internal/provider/openai"
	"github.com/eralogue/eralogue/internal/server/web/api"
	"github.com/eralogue/eralogue/internal/server/web/relay"
	"github.com/eralogue/eralogue/internal/storage/memdb"
	"github.com/eralogue/eralogue/internal/storage/postgresql"
	redisStorage "github.com/eralogue/eralogue/internal/storage/redis"
	"github.com/eralogue/eralogue/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	modePtr := flag.String("m", "dev", "select the mode that eralogue runs in")
	flag.Parse()

	godotenv.Load()

	log := zap.NewLogger(*modePtr)

	gin.SetMode(gin.ReleaseMode)

	cfg, err := internalConfig.ParseEnvVariables()
	if err != nil {
		log.Sugar().Fatalf("cannot parse environment variables: %v", err)
	}

	if err := telemetry.Init(cfg); err != nil {
		log.Sugar().Fatalf("cannot initialize telemetry: %v", err)
	}

	if cfg.OpenTelemetryEnabled {
		shutdownTracer, err := telemetry.SetupOTelSDK(context.Background(), cfg)
		if err != nil {
			log.Sugar().Fatalf("error setting up open telemetry sdk: %v", err)
		}

		defer shutdownTracer(context.Background())
	}

	store, err := postgresql.NewStore(
		fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s", cfg.PostgresqlUsername, cfg.PostgresqlPassword, cfg.PostgresqlHosts, cfg.PostgresqlPort, cfg.PostgresqlDbName, cfg.PostgresqlSslMode),
		log,
		cfg.PostgresqlWriteTimeout,
		cfg.PostgresqlReadTimeout,
	)
	if err != nil {
		log.Sugar().Fatalf("cannot connect to postgresql: %v", err)
	}

	if err := store.CreatePersonasTable(); err != nil {
		log.Sugar().Fatalf("error creating personas table: %v", err)
	}

	if err := store.CreateSessionsTable(); err != nil {
		log.Sugar().Fatalf("error creating chat sessions table: %v", err)
	}

	if err := store.CreateMessagesTable(); err != nil {
		log.Sugar().Fatalf("error creating messages table: %v", err)
	}

	if err := store.CreateSettingsTable(); err != nil {
		log.Sugar().Fatalf("error creating user settings table: %v", err)
	}

	memStore, err := memdb.NewPersonasMemDb(store, log, cfg.InMemoryDbUpdateInterval)
	if err != nil {
		log.Sugar().Fatalf("cannot initialize personas memdb: %v", err)
	}

	pm := manager.NewPersonaManager(store, memStore)

	catalog, err := config.NewCatalog(cfg.PersonaCatalogPath)
	if err != nil {
		log.Sugar().Infof("persona catalog is not loaded: %v", err)
	}

	if catalog != nil {
		if err := pm.SeedPersonas(catalog.ToPersonas()); err != nil {
			log.Sugar().Fatalf("error seeding personas: %v", err)
		}
	}

	var watcher *config.CatalogWatcher
	if catalog != nil && cfg.PersonaCatalogWatch {
		watcher, err = config.NewCatalogWatcher(cfg.PersonaCatalogPath, func(c *config.Catalog) {
			if err := pm.SeedPersonas(c.ToPersonas()); err != nil {
				log.Sugar().Errorf("error reseeding personas: %v", err)
			}
		}, log)
		if err != nil {
			log.Sugar().Fatalf("error creating catalog watcher: %v", err)
		}

		watcher.Listen()
	}

	memStore.Listen()

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHosts, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	settingsCache := redisStorage.NewSettingsCache(c, cfg.RedisWriteTimeout, cfg.RedisReadTimeout, cfg.SettingsCacheTtl)
	sessionCache := redisStorage.NewSessionCache(c, cfg.RedisWriteTimeout, cfg.RedisReadTimeout)

	sm := manager.NewSessionManager(store, pm, sessionCache, cfg.SessionCacheTtl)
	stm := manager.NewSettingsManager(store, settingsCache)

	as, err := api.NewApiServer(log, *modePtr, cfg.ApiPort, pm, sm, stm, cfg.AdminPass)
	if err != nil {
		log.Sugar().Fatalf("error creating api http server: %v", err)
	}

	as.Run()

	tc, err := openai.NewTokenCounter()
	if err != nil {
		log.Sugar().Fatalf("error creating token counter: %v", err)
	}

	ce := openai.NewCostEstimator(openai.OpenAiPerThousandTokenCost, tc)

	rs, err := relay.NewRelayServer(log, *modePtr, relay.Options{
		Port:                 cfg.RelayPort,
		ChatEndpoint:         cfg.ChatEndpoint,
		SpeechEndpoint:       cfg.SpeechEndpoint,
		ChatModel:            cfg.ChatModel,
		ChatTemperature:      float32(cfg.ChatTemperature),
		VisionModel:          cfg.VisionModel,
		VisionMaxTokens:      cfg.VisionMaxTokens,
		SpeechModel:          cfg.SpeechModel,
		SpeechVoice:          cfg.SpeechVoice,
		SpeechResponseFormat: cfg.SpeechResponseFormat,
		UpstreamTimeout:      cfg.UpstreamTimeout,
		EnableOtel:           cfg.OpenTelemetryEnabled,
	}, func() string {
		// re-read on every invocation so a rotated key needs no restart
		return os.Getenv("OPENAI_API_KEY")
	}, ce)
	if err != nil {
		log.Sugar().Fatalf("error creating relay http server: %v", err)
	}

	rs.Run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	memStore.Stop()

	if watcher != nil {
		watcher.Stop()
	}

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := as.Shutdown(ctx); err != nil {
		log.Sugar().Debugf("api server shutdown: %v", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Shutdown(ctx); err != nil {
		log.Sugar().Debugf("relay server shutdown: %v", err)
	}

	log.Info("server exited")
}
