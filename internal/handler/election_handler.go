package handler

import (
	"net/http"

	"campus-api/internal/domain"
	"campus-api/internal/service"
	"campus-api/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type ElectionHandler struct {
	elections *service.ElectionService
	log       *logger.Logger
}

func NewElectionHandler(elections *service.ElectionService, log *logger.Logger) *ElectionHandler {
	return &ElectionHandler{elections: elections, log: log}
}

// RegisterRoutes mounts the election endpoints. Reads are open to any
// authenticated caller; writes go through the role policy inside the
// service.
func (h *ElectionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/elections", func(r chi.Router) {
		r.Get("/", h.ListElections)
		r.Post("/", h.CreateElection)
		r.Get("/candidates/pending", h.ListPendingCandidates)

		r.Route("/{electionId}", func(r chi.Router) {
			r.Get("/", h.GetElection)
			r.Patch("/", h.UpdateElection)
			r.Delete("/", h.DeleteElection)
			r.Post("/cancel", h.CancelElection)
			r.Get("/candidates", h.ListCandidates)
			r.Post("/candidates", h.SubmitCandidacy)
			r.Post("/votes", h.CastVote)
			r.Get("/tally", h.GetTally)
			r.Get("/my-vote", h.GetMyVote)
		})
	})
	r.Post("/candidates/{candidateId}/review", h.ReviewCandidate)
	r.Get("/votes/{voteId}", h.VerifyVote)
}

// CreateElection handles POST /api/v1/elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.CreateElectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	view, err := h.elections.CreateElection(r.Context(), user, &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GetElection handles GET /api/v1/elections/{electionId}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	view, err := h.elections.GetElection(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ListElections handles GET /api/v1/elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	views, err := h.elections.ListElections(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// UpdateElection handles PATCH /api/v1/elections/{electionId}
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.UpdateElectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	view, err := h.elections.UpdateElection(r.Context(), user, chi.URLParam(r, "electionId"), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CancelElection handles POST /api/v1/elections/{electionId}/cancel
func (h *ElectionHandler) CancelElection(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	view, err := h.elections.CancelElection(r.Context(), user, chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DeleteElection handles DELETE /api/v1/elections/{electionId}
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	if err := h.elections.DeleteElection(r.Context(), user, chi.URLParam(r, "electionId")); err != nil {
		respondError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitCandidacy handles POST /api/v1/elections/{electionId}/candidates
func (h *ElectionHandler) SubmitCandidacy(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.SubmitCandidacyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	candidate, err := h.elections.SubmitCandidacy(r.Context(), user, chi.URLParam(r, "electionId"), &req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, candidate)
}

// ReviewCandidate handles POST /api/v1/candidates/{candidateId}/review
func (h *ElectionHandler) ReviewCandidate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req struct {
		Decision domain.ReviewDecision `json:"decision"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	candidate, err := h.elections.ReviewCandidate(r.Context(), user, chi.URLParam(r, "candidateId"), req.Decision)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, candidate)
}

// ListCandidates handles GET /api/v1/elections/{electionId}/candidates
func (h *ElectionHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.elections.ListCandidates(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// ListPendingCandidates handles GET /api/v1/elections/candidates/pending
func (h *ElectionHandler) ListPendingCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.elections.ListPendingCandidates(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

// CastVote handles POST /api/v1/elections/{electionId}/votes
func (h *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req domain.CastVoteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	vote, err := h.elections.CastVote(r.Context(), user, chi.URLParam(r, "electionId"), req.CandidateID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, vote)
}

// GetTally handles GET /api/v1/elections/{electionId}/tally
func (h *ElectionHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.elections.Tally(r.Context(), chi.URLParam(r, "electionId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, tally)
}

// GetMyVote handles GET /api/v1/elections/{electionId}/my-vote
func (h *ElectionHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	candidateID, err := h.elections.HasVoted(r.Context(), chi.URLParam(r, "electionId"), user.ID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	resp := struct {
		HasVoted    bool   `json:"has_voted"`
		CandidateID string `json:"candidate_id,omitempty"`
	}{
		HasVoted:    candidateID != "",
		CandidateID: candidateID,
	}
	respondJSON(w, http.StatusOK, resp)
}

// VerifyVote handles GET /api/v1/votes/{voteId}
func (h *ElectionHandler) VerifyVote(w http.ResponseWriter, r *http.Request) {
	vote, err := h.elections.VerifyVote(r.Context(), chi.URLParam(r, "voteId"))
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, vote)
}
