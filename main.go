package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/freightpay/backend/src/config"
	"github.com/username/freightpay/backend/src/database"
	"github.com/username/freightpay/backend/src/handlers"
	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/notify"
	"github.com/username/freightpay/backend/src/security"
	"github.com/username/freightpay/backend/src/services"
	"golang.org/x/time/rate"
)

func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
			"http://localhost:5173": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("FreightPay backend server starting...")

	if !config.Cfg.AuthDisabled && len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	logger.L.Info("Initializing notification hub...")
	hub := notify.NewHub()

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	alertService := services.NewAlertService()
	settlementService := services.NewSettlementService(database.DB, hub, reportCache, alertService)
	accountService := services.NewAccountService(database.DB)
	companyService := services.NewCompanyService(database.DB, authService)

	driverHandler := handlers.NewDriverHandler(settlementService)
	clientHandler := handlers.NewClientHandler(settlementService, accountService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	wsHandler := handlers.NewWSHandler(hub)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	authRequired := handlers.AuthMiddleware(authService)
	protected := func(handler http.HandlerFunc) http.Handler {
		return authRequired(handler)
	}

	apiRouter.Handle("POST /api/driver", protected(driverHandler.HandleSubmitFee))
	apiRouter.Handle("GET /api/driver", protected(driverHandler.HandleGetFee))
	apiRouter.Handle("POST /api/driver/confirm", protected(driverHandler.HandleConfirmFee))
	apiRouter.Handle("GET /api/driver/list", protected(driverHandler.HandleListFees))
	apiRouter.Handle("POST /api/driver/pay", protected(driverHandler.HandlePay))

	apiRouter.Handle("GET /api/client/fee/list", protected(clientHandler.HandleFeeList))
	apiRouter.Handle("PATCH /api/client/reject", protected(clientHandler.HandleRejectFee))
	apiRouter.Handle("PATCH /api/client/pay", protected(clientHandler.HandleRequestSettlement))
	apiRouter.Handle("PATCH /api/client/recharge", protected(clientHandler.HandleRecharge))
	apiRouter.Handle("GET /api/client/list", protected(clientHandler.HandleListAccounts))
	apiRouter.Handle("PATCH /api/client/accounts/{id}/approve-recharge", protected(clientHandler.HandleApproveRecharge))
	apiRouter.Handle("PATCH /api/client/balance-warning", protected(clientHandler.HandleBalanceWarning))
	apiRouter.Handle("GET /api/client/detail", protected(clientHandler.HandleDetail))

	apiRouter.Handle("GET /api/companies/{id}", protected(companyHandler.HandleGetCompany))
	apiRouter.Handle("PUT /api/companies/{id}", protected(companyHandler.HandleUpdateCompany))

	rootMux.Handle("/api/", apiRouter)

	// Server timeouts stop applying once the upgrade hijacks the
	// connection, so long-lived subscriptions are safe behind them.
	rootMux.HandleFunc("GET /ws/{role}", wsHandler.HandleSubscribe)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "FreightPay Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)
	finalHandler := enableCORS(rateLimitMiddleware(limiter, rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
