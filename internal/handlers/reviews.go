package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"freelance/internal/common"
	"freelance/internal/core"
	"freelance/models"
)

// SubmitReviewHandler обрабатывает POST /api/projects/{projectId}/reviews.
// Оцениваемый и его роль выводятся из пары клиент/исполнитель проекта,
// идентификатор из запроса не принимается.
func (h *Handler) SubmitReviewHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	projectIDStr := chi.URLParam(r, "projectId")
	projectID, err := strconv.Atoi(projectIDStr)
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var input struct {
		Score1  int    `json:"score1"`
		Score2  int    `json:"score2"`
		Score3  int    `json:"score3"`
		Comment string `json:"comment"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := core.ValidateScores(input.Score1, input.Score2, input.Score3); err != nil {
		respondDomainError(w, err)
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	revieweeID, revieweeRole, err := core.Counterpart(project, identity.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	already, err := h.Store.HasReview(r.Context(), projectID, identity.ID, revieweeID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !core.CanSubmitReview(project, identity.ID, revieweeID, already, time.Now()) {
		respondDomainError(w, common.ErrInvalidState)
		return
	}

	review := &models.Review{
		ProjectID:    projectID,
		ReviewerID:   identity.ID,
		RevieweeID:   revieweeID,
		RevieweeRole: revieweeRole,
		Score1:       input.Score1,
		Score2:       input.Score2,
		Score3:       input.Score3,
		Comment:      input.Comment,
	}
	if err := h.Store.CreateReview(r.Context(), review); err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, review)
}

// GetUserRatingHandler возвращает сводку рейтинга пользователя
func (h *Handler) GetUserRatingHandler(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "userId")
	userID, err := strconv.Atoi(userIDStr)
	if err != nil || userID <= 0 {
		http.Error(w, "Invalid userId", http.StatusBadRequest)
		return
	}

	limit := core.DefaultRecentComments
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	summary, err := h.ratingSummary(r, userID, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusOK, summary)
}
