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

	"freelance/internal/blob"
	"freelance/internal/common"
	"freelance/internal/core"
	"freelance/models"
)

// UploadFileHandler обрабатывает загрузку файла сдачи исполнителем:
// multipart-форма со stage (in_process | final) и файлом
func (h *Handler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	stage := models.Stage(r.FormValue("stage"))
	// rejected проставляется только решением клиента, напрямую не загружается
	if stage != models.StageInProcess && stage != models.StageFinal {
		common.RespondWithError(w, http.StatusBadRequest, "stage must be 'in_process' or 'final'")
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := core.CanUpload(project, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	dateBucket := blob.DateBucket(time.Now())
	key := blob.ObjectKey(project.Title, stage, dateBucket, header.Filename)
	contentType := header.Header.Get("Content-Type")
	if err := h.Blob.Write(r.Context(), key, file, header.Size, contentType); err != nil {
		respondDomainError(w, err)
		return
	}

	event := &models.DeliveryEvent{
		ProjectID:  projectID,
		UploaderID: identity.ID,
		Stage:      stage,
		DateBucket: dateBucket,
		Filename:   header.Filename,
		Path:       key,
	}
	if err := h.Store.CreateDeliveryEvent(r.Context(), event); err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, event)
}

// DownloadZipHandler отдает бакет этапа/даты одним zip-архивом
func (h *Handler) DownloadZipHandler(w http.ResponseWriter, r *http.Request) {
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

	stage := models.Stage(r.URL.Query().Get("stage"))
	dateBucket := r.URL.Query().Get("date")
	if !stage.Valid() || dateBucket == "" {
		common.RespondWithError(w, http.StatusBadRequest, "stage and date are required")
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// Архив доступен только сторонам проекта
	isClient := identity.ID == project.ClientID
	isAssigned := project.AssignedContractorID != nil && identity.ID == *project.AssignedContractorID
	if !isClient && !isAssigned {
		common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
		return
	}

	prefix := path.Join(project.Title, string(stage), dateBucket)

	var buf bytes.Buffer
	if err := h.Blob.ArchiveZip(r.Context(), prefix, &buf); err != nil {
		common.RespondWithError(w, http.StatusNotFound, common.ErrNotFound.Error())
		return
	}

	zipName := fmt.Sprintf("%s_%s_%s.zip", dateBucket, project.Title, stage)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(zipName)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
