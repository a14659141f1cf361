package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"join-board/api"
	"join-board/board"
	"join-board/reconcile"
	"join-board/remote"
	"join-board/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    envInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     envInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   true,
		})
	}

	remoteBaseURL := os.Getenv("REMOTE_BASE_URL")
	if remoteBaseURL == "" {
		logger.Fatal("missing remote store config")
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	var redisClient *redis.Client
	if redisConn == "" {
		logger.Warn("missing redis config, running with memory-only cache")
	} else {
		redisOpts, err := redis.ParseURL(redisConn)
		if err != nil {
			parts := strings.Split(redisConn, ",")
			redisOpts = &redis.Options{Addr: parts[0]}
			for _, p := range parts[1:] {
				kv := strings.SplitN(p, "=", 2)
				if len(kv) != 2 {
					continue
				}
				switch strings.ToLower(kv[0]) {
				case "password":
					redisOpts.Password = kv[1]
				case "ssl":
					if strings.ToLower(kv[1]) == "true" {
						redisOpts.TLSConfig = &tls.Config{}
					}
				}
			}
		}
		redisClient = redis.NewClient(redisOpts)
	}

	cache := storage.NewCache(redisClient, logger)
	store := remote.NewClient(remoteBaseURL, nil, logger)
	rec := reconcile.New(cache, store, logger, reconcile.Config{
		Workers:     envInt("PUSH_WORKERS", 2),
		Buffer:      envInt("PUSH_BUFFER", 64),
		PushTimeout: envDur("PUSH_TIMEOUT", 30*time.Second),
	})

	// The board must not become interactive before the cache is primed
	// and the startup pull has been given a chance.
	startupCtx, cancel := context.WithTimeout(context.Background(), envDur("STARTUP_TIMEOUT", 30*time.Second))
	rec.Startup(startupCtx)
	cancel()
	if rec.Degraded() {
		logger.Warn("serving in degraded mode from local cache")
	}

	tasks := board.NewTaskRepository(cache, rec)
	contacts := board.NewContactRepository(cache, rec)
	session := &board.SessionState{}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	api.Register(e, tasks, contacts, session, rec, cache, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
