package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"tribunal/contexts/governance/consensus-engine/domain/entities"
	consensushttp "tribunal/contexts/governance/consensus-engine/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.InitializeRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	if err := s.consensus.Handler.InitializeHandler(r.Context(), callerFromRequest(r), req); err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.ConfigDTO
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.UpdateConfigHandler(r.Context(), callerFromRequest(r), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	resp, err := s.consensus.Handler.GetConfigHandler(r.Context())
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFees(w http.ResponseWriter, r *http.Request) {
	resp, err := s.consensus.Handler.GetFeesHandler(r.Context())
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.RoleRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	err := s.consensus.Handler.GrantRoleHandler(r.Context(), callerFromRequest(r), chi.URLParam(r, "address"), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	err := s.consensus.Handler.RevokeRoleHandler(
		r.Context(),
		callerFromRequest(r),
		chi.URLParam(r, "address"),
		chi.URLParam(r, "role"),
	)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetVoterProfile(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.VoterProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.SetVoterProfileHandler(r.Context(), callerFromRequest(r), chi.URLParam(r, "address"), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.ActivityRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.RecordActivityHandler(r.Context(), callerFromRequest(r), chi.URLParam(r, "address"), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVoterProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.consensus.Handler.GetVoterProfileHandler(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComputeWeight(w http.ResponseWriter, r *http.Request) {
	resp, err := s.consensus.Handler.ComputeWeightHandler(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.consensus.Handler.VoterHistoryHandler(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlagReview(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.FlagReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.FlagReviewHandler(r.Context(), callerFromRequest(r), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.CreateProposalRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.CreateProposalHandler(r.Context(), callerFromRequest(r), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleOpenDispute(w http.ResponseWriter, r *http.Request) {
	var req consensushttp.OpenDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.OpenDisputeHandler(r.Context(), callerFromRequest(r), req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	s.getSubjectOfKind(w, r, entities.SubjectKindFlag)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	s.getSubjectOfKind(w, r, entities.SubjectKindProposal)
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	s.getSubjectOfKind(w, r, entities.SubjectKindDispute)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	s.getSubjectOfKind(w, r, "")
}

func (s *Server) getSubjectOfKind(w http.ResponseWriter, r *http.Request, kind entities.SubjectKind) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	resp, err := s.consensus.Handler.GetSubjectHandler(r.Context(), kind, subjectID)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	resp, err := s.consensus.Handler.ListSubjectsHandler(
		r.Context(),
		strings.TrimSpace(query.Get("kind")),
		strings.TrimSpace(query.Get("status")),
		limit,
		offset,
	)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	if err := s.consensus.Handler.ResetSubjectHandler(r.Context(), callerFromRequest(r), subjectID); err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	var req consensushttp.CastVoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.CastVoteHandler(r.Context(), callerFromRequest(r), subjectID, req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	resp, err := s.consensus.Handler.ListBallotsHandler(r.Context(), subjectID)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	resp, err := s.consensus.Handler.GetBallotHandler(r.Context(), subjectID, chi.URLParam(r, "voter"))
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTryResolve(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	resp, err := s.consensus.Handler.TryResolveHandler(r.Context(), callerFromRequest(r), subjectID)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminResolve(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	var req consensushttp.AdminResolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "invalid json payload")
		return
	}
	resp, err := s.consensus.Handler.AdminResolveHandler(r.Context(), callerFromRequest(r), subjectID, req)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundRelease(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := subjectIDParam(r)
	if !ok {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "subject_id must be a positive integer")
		return
	}
	resp, err := s.consensus.Handler.FundReleaseHandler(r.Context(), subjectID)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContentStatus(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		writeConsensusError(w, http.StatusBadRequest, "invalid_request", "target is required")
		return
	}
	resp, err := s.consensus.Handler.ContentStatusHandler(r.Context(), target)
	if err != nil {
		writeConsensusDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
