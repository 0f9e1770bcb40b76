// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/navidsh/go-ragchat/internal/config"
	"github.com/navidsh/go-ragchat/internal/domain"
	"github.com/navidsh/go-ragchat/internal/handlers"
	"github.com/navidsh/go-ragchat/internal/middleware"
	"github.com/navidsh/go-ragchat/internal/ratelimit"
	chatrepo "github.com/navidsh/go-ragchat/internal/repository/chat"
	messagerepo "github.com/navidsh/go-ragchat/internal/repository/message"
	docrepo "github.com/navidsh/go-ragchat/internal/repository/document"
	"github.com/navidsh/go-ragchat/internal/services"
	chatservice "github.com/navidsh/go-ragchat/internal/services/chat"
	docservice "github.com/navidsh/go-ragchat/internal/services/document"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.Load()
	logger := services.NewLogger("ragchat")

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.Chat{}, &domain.Message{}, &domain.Attachment{}, &domain.Document{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	chatRepo := chatrepo.NewChatRepository(db)
	messageRepo := messagerepo.NewMessageRepository(db)
	documentRepo := docrepo.NewDocumentRepository(db)

	// --- Services ---
	chatConfig := chatservice.DefaultConfig()
	chatConfig.CompletionURL = cfg.CompletionBaseURL
	chatConfig.CompletionAPIKey = cfg.CompletionAPIKey
	chatConfig.Model = cfg.CompletionModel
	chatConfig.RetrievalURL = cfg.RetrievalServiceURL + "/query"
	chatConfig.HistoryWindow = cfg.HistoryWindow

	chatService, err := services.NewChatService(chatConfig, chatRepo, messageRepo, cfg.StorageDir, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Service: %v", err)
	}

	docConfig := docservice.DefaultConfig()
	docConfig.IngestURL = cfg.RetrievalServiceURL + "/file/store"
	docConfig.StorageDir = cfg.StorageDir

	documentService, err := docservice.NewService(docConfig, documentRepo, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Document Service: %v", err)
	}

	// --- Handlers ---
	chatHandler := handlers.NewChatHandler(chatService)
	messageHandler := handlers.NewMessageHandler(messageRepo, chatRepo)
	interactionHandler := handlers.NewInteractionHandler(chatService)
	documentHandler := handlers.NewDocumentHandler(documentService, cfg.DocumentAccessKey)

	// --- Rate Limiters ---
	interactLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultInteractConfig())
	defer interactLimiter.Close()
	uploadLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.UploadConfig())
	defer uploadLimiter.Close()

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware(cfg.JWTSecretKey)

	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")
	r.HandleFunc("/api/documents/{id}/raw", documentHandler.Download).Methods("GET")

	// --- Protected API ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.Handle("/interact",
		middleware.RateLimitMiddleware(interactLimiter, "interact")(
			http.HandlerFunc(interactionHandler.Interact))).Methods("POST")

	api.HandleFunc("/chats", chatHandler.GetUserChats).Methods("GET")
	api.HandleFunc("/chats", chatHandler.CreateChat).Methods("POST")
	api.HandleFunc("/chats/{id}/messages", chatHandler.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}", chatHandler.RenameChat).Methods("PUT")
	api.HandleFunc("/chats/{id}", chatHandler.DeleteChat).Methods("DELETE")

	api.HandleFunc("/messages", messageHandler.Create).Methods("POST")
	api.HandleFunc("/messages/{id:[0-9]+}", messageHandler.Show).Methods("GET")
	api.HandleFunc("/messages/{id:[0-9]+}", messageHandler.Update).Methods("PUT")
	api.HandleFunc("/messages/{id:[0-9]+}", messageHandler.Delete).Methods("DELETE")

	api.Handle("/documents",
		middleware.RateLimitMiddleware(uploadLimiter, "upload")(
			http.HandlerFunc(documentHandler.Upload))).Methods("POST")
	api.HandleFunc("/documents", documentHandler.List).Methods("GET")
	api.HandleFunc("/documents/{id}", documentHandler.Delete).Methods("DELETE")

	// --- Server Configuration ---
	port := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Server starting on port %s (env: %s)", port, cfg.Environment)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
