package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveAdapter(w http.ResponseWriter, r *http.Request) {
	var a model.Adapter
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid adapter payload")
		return
	}
	defer r.Body.Close()
	saved, err := s.adapterService.SaveAdapter(a)
	if err != nil {
		logger.Error("error saving adapter", zap.String("name", a.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

func (s *Server) HandleGetAdapter(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := s.adapterService.GetAdapter(id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "adapter not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, a)
}

func (s *Server) HandleDeleteAdapter(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.adapterService.DeleteAdapter(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, "adapter deleted")
}

func (s *Server) HandleListAdapters(w http.ResponseWriter, r *http.Request) {
	adapters, err := s.adapterService.ListAdapters()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, adapters)
}

func (s *Server) HandleSupportedAdapters(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.adapterService.SupportedAdapters())
}

func (s *Server) HandleTestAdapter(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.adapterService.TestAdapter(id); err != nil {
		logger.Error("adapter test failed", zap.String("adapter", id), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, "connection ok")
}
