package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/meal-planner/internal/auth"
	"github.com/fdg312/meal-planner/internal/blob"
	"github.com/fdg312/meal-planner/internal/config"
	"github.com/fdg312/meal-planner/internal/exports"
	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/fdg312/meal-planner/internal/storage/memory"
	"github.com/fdg312/meal-planner/internal/storage/postgres"
	"github.com/fdg312/meal-planner/internal/storage/sqlite"
	"github.com/fdg312/meal-planner/internal/templates"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	storageMode    string
	blobStore      blob.Store
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New создаёт сервер, выбирая storage по STORAGE_MODE
func New(cfg *config.Config) *Server {
	st, mode, err := openStorage(context.Background(), cfg)
	if err != nil {
		log.Fatalf("FATAL storage: %v", err)
	}
	log.Printf("INFO storage: mode=%s", mode)

	s := newServer(cfg, st, mode)
	s.blobStore = initBlobStore(cfg)
	s.routes()
	return s
}

// NewWithStorage builds a server over an already opened storage with a local blob store.
func NewWithStorage(cfg *config.Config, st storage.Storage) *Server {
	s := newServer(cfg, st, "external")
	s.routes()
	return s
}

func newServer(cfg *config.Config, st storage.Storage, mode string) *Server {
	return &Server{
		config:      cfg,
		mux:         http.NewServeMux(),
		storage:     st,
		storageMode: mode,
	}
}

// openStorage resolves STORAGE_MODE. auto means postgres when a database URL
// is set, memory otherwise; a failed postgres connection in auto mode falls
// back to memory. Explicit modes fail instead of falling back.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string, error) {
	switch cfg.StorageMode {
	case config.StorageModeMemory:
		return memory.New(), config.StorageModeMemory, nil

	case config.StorageModePostgres:
		if cfg.DatabaseURL == "" {
			return nil, "", errors.New("STORAGE_MODE=postgres but no DATABASE_URL is set")
		}
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("connect postgres: %w", err)
		}
		return pg, config.StorageModePostgres, nil

	case config.StorageModeSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return db, config.StorageModeSQLite, nil

	default:
		if cfg.DatabaseURL == "" {
			log.Println("INFO storage: DATABASE_URL not set, using in-memory storage")
			return memory.New(), config.StorageModeMemory, nil
		}
		log.Println("INFO storage: подключение к PostgreSQL...")
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("WARN storage: postgres unavailable: %v", err)
			log.Println("WARN storage: fallback на in-memory storage")
			return memory.New(), config.StorageModeMemory, nil
		}
		return pg, config.StorageModePostgres, nil
	}
}

func initBlobStore(cfg *config.Config) blob.Store {
	log.Printf("INFO blob: initializing exports store (BLOB_MODE=%s)", cfg.Blob.Mode)
	store, mode, err := blob.NewBlobStore(cfg.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize exports store: %v", err)
	}
	log.Printf("INFO blob: exports blob mode: %s", mode)
	return store
}

// routes регистрирует маршруты
func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)
	if s.config.AuthMode == config.AuthModeDev {
		authHandler := auth.NewHandlers(authService)
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}

	// Meal Plans API
	mealPlansService := mealplans.NewService(s.storage.GetMealPlansStorage(), s.config.PlanMaxMealsPerDay)
	mealPlansHandler := mealplans.NewHandler(mealPlansService)

	s.mux.HandleFunc("GET /v1/meal/plan", mealPlansHandler.HandleGetPlan)
	s.mux.HandleFunc("DELETE /v1/meal/plan", mealPlansHandler.HandleDeletePlan)
	s.mux.HandleFunc("GET /v1/meal/plan/week", mealPlansHandler.HandleGetWeek)
	s.mux.HandleFunc("GET /v1/meal/plan/day", mealPlansHandler.HandleGetDay)
	s.mux.HandleFunc("POST /v1/meal/plan/meals", mealPlansHandler.HandleAddMeal)
	s.mux.HandleFunc("DELETE /v1/meal/plan/meals", mealPlansHandler.HandleRemoveMeal)
	s.mux.HandleFunc("POST /v1/meal/plan/meals/reorder", mealPlansHandler.HandleReorderMeal)
	s.mux.HandleFunc("PUT /v1/meal/plan/day/template", mealPlansHandler.HandleApplyDayTemplate)
	s.mux.HandleFunc("PUT /v1/meal/plan/week/template", mealPlansHandler.HandleApplyWeekTemplate)
	s.mux.HandleFunc("POST /v1/meal/plan/day/clear", mealPlansHandler.HandleClearDay)
	s.mux.HandleFunc("POST /v1/meal/plan/week/clear", mealPlansHandler.HandleClearWeek)

	// Goals
	s.mux.HandleFunc("PUT /v1/meal/goals", mealPlansHandler.HandleSetGoal)
	s.mux.HandleFunc("DELETE /v1/meal/goals", mealPlansHandler.HandleRemoveGoal)

	// Templates API
	templatesService := templates.NewService(s.storage.GetTemplatesStorage(), mealPlansService, s.config.TemplatesMaxPerUser)
	templatesHandler := templates.NewHandler(templatesService)

	s.mux.HandleFunc("GET /v1/meal/templates", templatesHandler.HandleList)
	s.mux.HandleFunc("POST /v1/meal/templates", templatesHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/meal/templates/{id}", templatesHandler.HandleGet)
	s.mux.HandleFunc("DELETE /v1/meal/templates/{id}", templatesHandler.HandleDelete)
	s.mux.HandleFunc("POST /v1/meal/templates/{id}/apply", templatesHandler.HandleApply)

	// Exports API
	exportsService := exports.NewService(s.storage.GetExportsStorage(), mealPlansService, s.blobStore, s.config.ExportsTTLSeconds)
	exportsHandler := exports.NewHandlers(exportsService)

	s.mux.HandleFunc("POST /v1/meal/exports", exportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/meal/exports", exportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/meal/exports/{id}/download", exportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/meal/exports/{id}", exportsHandler.HandleDelete)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"storage": s.storageMode,
	})
}

// Handler returns the mux wrapped in the middleware chain (outermost first):
// CORS → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.Wrap(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start блокируется до остановки сервера
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("INFO Сервер запущен на http://localhost%s", addr)
	log.Printf("INFO Health check: http://localhost%s/healthz", addr)
	log.Printf("INFO Meal plan API: http://localhost%s/v1/meal/plan", addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones and closes storage.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.Close()
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
