package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"freelance/internal/common"
	"freelance/internal/core"
	"freelance/models"
)

// CreateBidHandler обрабатывает POST /api/bids/new: multipart-форма
// с project_id, price и необязательным файлом предложения
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	projectID, err := strconv.Atoi(r.FormValue("project_id"))
	if err != nil || projectID <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "project_id must be positive")
		return
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.sweepDeadline(r, project)

	now := time.Now()
	if err := core.CanSubmitBid(project, identity, now); err != nil {
		respondDomainError(w, err)
		return
	}

	// Повторное предложение по тому же проекту не принимается
	already, err := h.Store.HasBid(r.Context(), projectID, identity.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if already {
		respondDomainError(w, common.ErrInvalidState)
		return
	}

	bid := &models.Bid{
		ProjectID:    projectID,
		ContractorID: identity.ID,
		Price:        price,
	}

	if file, header, err := r.FormFile("proposal"); err == nil {
		defer file.Close()
		key := path.Join(project.Title, "proposals", identity.Username, header.Filename)
		contentType := header.Header.Get("Content-Type")
		if err := h.Blob.Write(r.Context(), key, file, header.Size, contentType); err != nil {
			respondDomainError(w, err)
			return
		}
		bid.ProposalPath = &key
	}

	if err := h.Store.SubmitBid(r.Context(), bid, now); err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, bid)
}

// getProjectAsOwner достает проект и проверяет, что вызывающий его владелец
func (h *Handler) getProjectAsOwner(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return nil, false
	}

	projectIDStr := chi.URLParam(r, "projectId")
	projectID, err := strconv.Atoi(projectIDStr)
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return nil, false
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	if identity.ID != project.ClientID {
		common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
		return nil, false
	}
	return project, true
}

// GetProposalsHandler возвращает владельцу список исполнителей,
// приложивших файл предложения
func (h *Handler) GetProposalsHandler(w http.ResponseWriter, r *http.Request) {
	project, ok := h.getProjectAsOwner(w, r)
	if !ok {
		return
	}

	names, err := h.Blob.ListChildren(r.Context(), path.Join(project.Title, "proposals"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusOK, names)
}

// DownloadProposalsZipHandler отдает владельцу все файлы предложений
// одним архивом, чтобы изучить их перед выбором исполнителя
func (h *Handler) DownloadProposalsZipHandler(w http.ResponseWriter, r *http.Request) {
	project, ok := h.getProjectAsOwner(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Blob.ArchiveZip(r.Context(), path.Join(project.Title, "proposals"), &buf); err != nil {
		common.RespondWithError(w, http.StatusNotFound, common.ErrNotFound.Error())
		return
	}

	zipName := fmt.Sprintf("%s_proposals.zip", project.Title)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(zipName)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetUserBidsHandler возвращает предложения исполнителя
func (h *Handler) GetUserBidsHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	bids, err := h.Store.GetUserBids(r.Context(), identity.ID, params.Limit, params.Offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusOK, bids)
}

// DeleteBidHandler удаляет отклоненное предложение его автора
func (h *Handler) DeleteBidHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	bidIDStr := chi.URLParam(r, "bidId")
	bidID, err := strconv.Atoi(bidIDStr)
	if err != nil || bidID <= 0 {
		http.Error(w, "Invalid bidId", http.StatusBadRequest)
		return
	}

	bid, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := core.CanRemoveBid(bid, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.Store.DeleteBid(r.Context(), bidID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
