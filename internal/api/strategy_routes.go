package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/swing-trade-backend/internal/models"
	"github.com/kjannette/swing-trade-backend/internal/repository"
	"github.com/kjannette/swing-trade-backend/internal/service"
)

// respondServiceError maps service-layer errors onto HTTP statuses: missing
// rows are 404, validation failures are 400, lifecycle conflicts (pausing a
// paused strategy, updating a terminal one) are 409.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "strategy not found")
	case strings.HasPrefix(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "must be"):
		writeError(w, http.StatusBadRequest, err.Error())
	case strings.HasPrefix(err.Error(), "cannot"),
		strings.Contains(err.Error(), "already"):
		writeError(w, http.StatusConflict, err.Error())
	default:
		fmt.Printf("[API] %s: %v\n", fallback, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	// Fee deduction defaults on; a caller must opt out explicitly.
	req.Config.DeductFeeFromPnL = true
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	strat, err := s.svc.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "failed to create strategy")
		return
	}
	writeJSON(w, http.StatusCreated, strat)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	var status *models.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.Status(v)
		if !st.IsValid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", v))
			return
		}
		status = &st
	}

	strategies, err := s.svc.List(r.Context(), status, limit)
	if err != nil {
		fmt.Printf("[API] Error listing strategies: %v\n", err)
		writeError(w, http.StatusInternalServerError, "failed to list strategies")
		return
	}
	writeJSON(w, http.StatusOK, strategies)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	strat, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err, "failed to fetch strategy")
		return
	}
	writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRequest
	req.Config.DeductFeeFromPnL = true
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	strat, err := s.svc.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		respondServiceError(w, err, "failed to update strategy")
		return
	}
	writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err, "failed to delete strategy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handlePauseStrategy(w http.ResponseWriter, r *http.Request) {
	strat, err := s.svc.Pause(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err, "failed to pause strategy")
		return
	}
	writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleActivateStrategy(w http.ResponseWriter, r *http.Request) {
	strat, err := s.svc.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err, "failed to activate strategy")
		return
	}
	writeJSON(w, http.StatusOK, strat)
}

type registerPositionRequest struct {
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
}

func (s *Server) handleRegisterPosition(w http.ResponseWriter, r *http.Request) {
	var req registerPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	strat, err := s.svc.RegisterPosition(r.Context(), r.PathValue("id"), req.EntryPrice, req.Quantity)
	if err != nil {
		respondServiceError(w, err, "failed to register position")
		return
	}
	writeJSON(w, http.StatusOK, strat)
}

type tickRequest struct {
	Price *float64 `json:"price"`
}

// handleTickStrategy evaluates one tick on demand. The body may carry an
// explicit price; without one the current exchange price is fetched.
func (s *Server) handleTickStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req tickRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	var outcome any
	var err error
	if req.Price != nil {
		if *req.Price <= 0 {
			writeError(w, http.StatusBadRequest, "price: must be positive")
			return
		}
		outcome, err = s.svc.RunTick(r.Context(), id, *req.Price, time.Now())
	} else {
		outcome, err = s.svc.TickWithFeedPrice(r.Context(), id)
	}
	if err != nil {
		respondServiceError(w, err, "failed to run tick")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err, "failed to fetch strategy stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
