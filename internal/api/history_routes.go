package api

import "net/http"

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	signals, err := s.svc.Signals(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		respondServiceError(w, err, "failed to fetch signals")
		return
	}
	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)

	executions, err := s.svc.Executions(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		respondServiceError(w, err, "failed to fetch executions")
		return
	}
	writeJSON(w, http.StatusOK, executions)
}
