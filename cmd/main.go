package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	// хендлер
	"quiz_chain_solver/internal/transport/http/handler"

	DTO_http "quiz_chain_solver/internal/DTO/http"
	"quiz_chain_solver/internal/config"
	"quiz_chain_solver/internal/service/oracle"
	"quiz_chain_solver/internal/service/solver"
)

func main() {
	color.Cyan("🚀 Starting Quiz Chain Solver...")

	// Загружаем .env (в проде переменные приходят из окружения)
	color.Yellow("📦 Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  .env not loaded: %v", err)
	} else {
		color.Green("✅ .env loaded successfully")
	}

	// Читаем конфигурацию; без секретов не стартуем
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	color.Blue("🔧 Configuration:")
	log.Printf("   MODEL:        %s", cfg.Model)
	log.Printf("   PROVIDER:     %s", cfg.Provider)
	log.Printf("   CHAIN_BUDGET: %s", cfg.ChainBudget)
	log.Printf("   MAX_HOPS:     %d", cfg.MaxHops)
	log.Printf("   PORT:         %s", cfg.Port)

	// Инициализируем сервисы
	color.Yellow("🔌 Initializing solver service...")
	orc := oracle.New(cfg)
	svc := solver.New(orc, cfg.ChainBudget, cfg.MaxHops)
	color.Green("✅ Service initialized")

	// Настраиваем роутер
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	// таймаут касается только самого запроса; цепочки живут в фоне
	r.Use(middleware.Timeout(60 * time.Second))

	// Хендлер
	r.Post("/receive_request", handler.NewReceiveRequestHandler(cfg.SecretKey, svc))

	// Служебные эндпоинты
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(DTO_http.ServiceInfo{
			Service:  "Quiz Chain Solver",
			Endpoint: "/receive_request",
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Запуск сервера
	addr := ":" + cfg.Port
	color.Magenta("🌐 Server starting on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
