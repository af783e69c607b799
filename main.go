package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dayScoreAPI/handlers"
	"dayScoreAPI/internal/ledger"
	"dayScoreAPI/internal/notification"
	"dayScoreAPI/internal/progression"
	"dayScoreAPI/internal/storekv"
	"dayScoreAPI/middleware"
	"dayScoreAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	store               storekv.Store
	ledgerService       *services.LedgerService
	timerService        *services.TimerService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("DATABASE_URL not set, using in-memory store (state is lost on restart)")
		store = storekv.NewMemoryStore()
	} else {
		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 10
		poolConfig.MinConns = 2
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		pgStore, err := storekv.NewPostgresStore(ctx, dbPool)
		if err != nil {
			log.Fatal("Failed to initialize ledger store:", err)
		}
		store = pgStore
		log.Println("Successfully connected to Postgres ledger store")
	}

	mode, err := ledger.ParseMode(os.Getenv("LEDGER_MODE"))
	if err != nil {
		log.Fatal("Invalid LEDGER_MODE:", err)
	}
	log.Printf("Ledger mode: %s", mode)

	notificationService = services.NewNotificationService(store)
	ledgerService = services.NewLedgerService(store, mode, notificationService)
	timerService = services.NewTimerService(ledgerService)

	switch os.Getenv("LEDGER_POLICY") {
	case "tiered":
		ledgerService.SetPolicy(progression.PolicyTiered)
	case "leveling":
		ledgerService.SetPolicy(progression.PolicyLeveling)
	case "":
	default:
		log.Fatal("Invalid LEDGER_POLICY: must be tiered or leveling")
	}

	if err := notificationService.Load(ctx); err != nil {
		log.Printf("Warning: could not load device tokens: %v", err)
	}
	if err := ledgerService.Load(ctx); err != nil {
		log.Fatal("Failed to load ledger state:", err)
	}

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
	middleware.TotalPointsGauge.Set(float64(ledgerService.TotalPoints()))
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	// Initialize handlers
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, timerService)
	activityHandler := handlers.NewActivityHandler(ledgerService, timerService)
	timerHandler := handlers.NewTimerHandler(ledgerService, timerService)
	settingsHandler := handlers.NewSettingsHandler(ledgerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	go middleware.CleanupClients()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "store connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "dayScore-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/ledger", ledgerHandler.GetLedger).Methods("GET")
	api.HandleFunc("/ledger/points", ledgerHandler.LogPoints).Methods("POST")
	api.HandleFunc("/ledger/reset", ledgerHandler.ResetPeriod).Methods("POST")

	api.HandleFunc("/activities", activityHandler.AddActivity).Methods("POST")
	api.HandleFunc("/activities/{id}", activityHandler.DeleteActivity).Methods("DELETE")
	api.HandleFunc("/activities/{id}/complete", ledgerHandler.CompleteActivity).Methods("POST")
	api.HandleFunc("/activities/{id}/complete", ledgerHandler.UncompleteActivity).Methods("DELETE")
	api.HandleFunc("/activities/{id}/log", ledgerHandler.LogActivity).Methods("POST")

	api.HandleFunc("/timers/{id}/start", timerHandler.StartTimer).Methods("POST")
	api.HandleFunc("/timers/{id}", timerHandler.GetTimer).Methods("GET")
	api.HandleFunc("/timers/{id}/stop", timerHandler.StopTimer).Methods("POST")

	api.HandleFunc("/settings", settingsHandler.GetSettings).Methods("GET")
	api.HandleFunc("/settings", settingsHandler.UpdateSettings).Methods("PUT")

	api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	api.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	api.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("POST")
	api.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
