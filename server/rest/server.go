package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/notifier"
	"github.com/cjbester78/h2h/server/service"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port             int
	executionService *service.FlowExecutionService
	adapterService   *service.AdapterService
	hub              *notifier.Hub
}

func NewServer(httpPort int, executionService *service.FlowExecutionService,
	adapterService *service.AdapterService, hub *notifier.Hub) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		Port:             httpPort,
		executionService: executionService,
		adapterService:   adapterService,
		hub:              hub,
	}

	router := mux.NewRouter()
	router.HandleFunc("/adapter", s.HandleSaveAdapter).Methods(http.MethodPost)
	router.HandleFunc("/adapter/{id}", s.HandleGetAdapter).Methods(http.MethodGet)
	router.HandleFunc("/adapter/{id}", s.HandleDeleteAdapter).Methods(http.MethodDelete)
	router.HandleFunc("/adapter/{id}/test", s.HandleTestAdapter).Methods(http.MethodPost)
	router.HandleFunc("/adapters", s.HandleListAdapters).Methods(http.MethodGet)
	router.HandleFunc("/adapters/supported", s.HandleSupportedAdapters).Methods(http.MethodGet)
	router.HandleFunc("/flow", s.HandleSaveFlow).Methods(http.MethodPost)
	router.HandleFunc("/flow/{id}", s.HandleGetFlow).Methods(http.MethodGet)
	router.HandleFunc("/flow/{id}", s.HandleDeleteFlow).Methods(http.MethodDelete)
	router.HandleFunc("/flow/{id}/execute", s.HandleExecuteFlow).Methods(http.MethodPost)
	router.HandleFunc("/flows", s.HandleListFlows).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}", s.HandleGetExecution).Methods(http.MethodGet)
	router.HandleFunc("/execution/{id}/cancel", s.HandleCancelExecution).Methods(http.MethodPost)
	router.HandleFunc("/executions", s.HandleListExecutions).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.hub.ServeWS)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": message})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
