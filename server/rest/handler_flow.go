package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveFlow(w http.ResponseWriter, r *http.Request) {
	var f model.Flow
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid flow payload")
		return
	}
	defer r.Body.Close()
	saved, err := s.executionService.SaveFlow(f)
	if err != nil {
		logger.Error("error saving flow", zap.String("name", f.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, saved)
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f, err := s.executionService.GetFlow(id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "flow not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, f)
}

func (s *Server) HandleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.executionService.DeleteFlow(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, "flow deleted")
}

func (s *Server) HandleListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.executionService.ListFlows()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, flows)
}

func (s *Server) HandleExecuteFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req model.FlowExecutionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
	}
	execution, err := s.executionService.StartFlow(id, req.TriggeredBy)
	if err != nil {
		logger.Error("error running flow", zap.String("flowId", id), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusAccepted, execution)
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	execution, err := s.executionService.GetExecution(id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "execution not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, execution)
}

func (s *Server) HandleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.executionService.CancelExecution(id); err != nil {
		if errors.Is(err, persistence.ErrTerminalState) {
			respondWithError(w, http.StatusConflict, "execution already finished")
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, "execution cancelled")
}

func (s *Server) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	flowId := r.URL.Query().Get("flowId")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	executions, err := s.executionService.ListExecutions(flowId, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, executions)
}
