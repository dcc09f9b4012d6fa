package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/aliasbackend/chain"
	"github.com/camden-git/aliasbackend/config"
	"github.com/camden-git/aliasbackend/database"
	"github.com/camden-git/aliasbackend/handlers"
	"github.com/camden-git/aliasbackend/index"
	"github.com/camden-git/aliasbackend/logger"
	"github.com/camden-git/aliasbackend/realtime"
	"github.com/camden-git/aliasbackend/repository"
	"github.com/camden-git/aliasbackend/services"
	"github.com/camden-git/aliasbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	// key problems are fatal here rather than on the first request
	signer, err := chain.NewSigner(cfg.Mnemonic, cfg.Prefix, cfg.HDPath)
	if err != nil {
		appLog.Fatal("failed to load signing key", "error", err)
	}
	rpc := chain.NewRPCClient(cfg.RPCEndpoint, cfg.RPCTimeout)
	adapter := chain.NewAdapter(signer, rpc, chain.AdapterConfig{
		ChainID:          cfg.ChainID,
		SendAmount:       chain.Coin{Denom: cfg.FeeDenom, Amount: cfg.SendAmount},
		WaitForInclusion: cfg.WaitForInclusion,
		InclusionTimeout: cfg.InclusionTimeout,
	}, appLog)
	fee := chain.Fee{Amount: chain.Coin{Denom: cfg.FeeDenom, Amount: cfg.FeeAmount}, GasLimit: cfg.GasLimit}
	aliasService := services.NewAliasService(adapter, fee, appLog)

	appLog.Info("service account loaded",
		"address", adapter.Address(),
		"rpc", cfg.RPCEndpoint,
		"fee", fee.Amount.String(),
		"gas_limit", cfg.GasLimit)

	// a node that is down at boot is not fatal; submissions surface it per request
	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.RPCTimeout)
	if height, err := rpc.LatestHeight(pingCtx); err != nil {
		appLog.Warn("chain node unreachable at startup", "rpc", cfg.RPCEndpoint, "error", err)
	} else {
		appLog.Info("connected to chain node", "latest_height", height)
	}
	cancelPing()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			appLog.Fatal("failed to create database directory", "path", dir, "error", err)
		}
	}
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		appLog.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	gormDB, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		appLog.Fatal("failed to initialize GORM database", "error", err)
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		appLog.Fatal("failed to migrate index tables", "error", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := realtime.NewHub(appLog)
	go hub.Run(hubCtx)

	aliasRepo := repository.NewAliasRepository(gormDB)
	reader := index.NewReader(aliasRepo, cfg.IndexCacheTTL)
	syncer := workers.NewIndexSyncer(rpc, aliasRepo, db, reader, adapter.Address(), cfg.IndexPageSize, cfg.IndexSyncInterval, appLog)
	syncer.Events = hub
	syncer.Start()

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	// a write may block for the whole inclusion wait
	requestTimeout := cfg.InclusionTimeout + cfg.RPCTimeout + 15*time.Second

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	aliasHandler := handlers.NewAliasHandler(aliasService, reader, appLog)
	aliasHandler.Events = hub

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", handlers.Health)
		r.Post("/alias", aliasHandler.CreateAlias)
		r.Post("/confirm", aliasHandler.ConfirmAlias)
		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", aliasHandler.ListAliases)
			r.Get("/{alias}", aliasHandler.GetAlias)
		})
	})

	// long-lived, so outside the request timeout
	r.Get("/events", hub.ServeWS)

	serverAddr := ":" + cfg.Port
	fmt.Printf("Server starting on http://localhost:%s\n", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		appLog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			appLog.Error("server shutdown failed", "error", err)
		}
	}()

	appLog.Info("server listening", "addr", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Fatal("server failed", "error", err)
	}
	syncer.Stop()
}
