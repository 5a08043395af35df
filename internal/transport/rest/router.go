package rest

import (
	"net/http"
	"os"
	"speakexam/internal/service"
	"speakexam/internal/transport/rest/handler"
	"speakexam/internal/transport/rest/middleware"
	"speakexam/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService *service.AuthService
	ExamService *service.ExamService
	WSHub       *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.ExamService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.ExamService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	r.Use(middleware.RequestLogger)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require the session's token)
	sessionRoutes := v1.PathPrefix("/sessions/{id}").Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("", sessionHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("", sessionHandler.End).Methods("DELETE", "OPTIONS")
	sessionRoutes.HandleFunc("/begin", sessionHandler.Begin).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/mode", sessionHandler.SelectMode).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/answers", sessionHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/recordings", sessionHandler.SubmitRecording).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/monologue/start", sessionHandler.StartMonologue).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/monologue/skip-preparation", sessionHandler.SkipPreparation).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/continue", sessionHandler.Continue).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/phases/{n:[0-9]+}", sessionHandler.SkipToPhase).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/restart", sessionHandler.Restart).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/report", sessionHandler.Report).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/speech", sessionHandler.Speech).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
