package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"freelance/internal/common"
	"freelance/internal/core"
	"freelance/models"
)

// CreateProjectHandler обрабатывает POST /api/projects/new запрос
func (h *Handler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !identity.IsClient() {
		common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
		return
	}

	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var input struct {
		Title            string    `json:"title"`
		Description      string    `json:"description"`
		ProposalDeadline time.Time `json:"proposalDeadline"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" || len(input.Title) > 100 {
		common.RespondWithError(w, http.StatusBadRequest, "title is required and max length 100")
		return
	}
	// Название служит префиксом ключей в блоб-хранилище
	if strings.Contains(input.Title, "/") {
		common.RespondWithError(w, http.StatusBadRequest, "title must not contain '/'")
		return
	}
	if input.Description == "" {
		common.RespondWithError(w, http.StatusBadRequest, "description is required")
		return
	}
	if !input.ProposalDeadline.After(time.Now()) {
		common.RespondWithError(w, http.StatusBadRequest, "proposalDeadline must be in the future")
		return
	}

	project := &models.Project{
		Title:            input.Title,
		Description:      input.Description,
		ClientID:         identity.ID,
		Status:           models.StatusOpen,
		ProposalDeadline: input.ProposalDeadline,
	}
	if err := h.Store.CreateProject(r.Context(), project); err != nil {
		respondDomainError(w, err)
		return
	}

	common.RespondWithJSON(w, http.StatusCreated, project)
}

// sweepDeadline лениво переводит open -> no_bid при чтении проекта
func (h *Handler) sweepDeadline(r *http.Request, p *models.Project) {
	if core.DeadlineExpired(p, time.Now()) {
		if err := h.Store.MarkNoBid(r.Context(), p.ID); err != nil {
			log.Printf("failed to mark project %d no_bid: %v", p.ID, err)
			return
		}
		p.Status = models.StatusNoBid
	}
}

// GetProjectsHandler возвращает список открытых проектов
func (h *Handler) GetProjectsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	projects, err := h.Store.GetOpenProjects(r.Context(), params.Limit, params.Offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	for i := range projects {
		h.sweepDeadline(r, &projects[i])
	}

	common.RespondWithJSON(w, http.StatusOK, projects)
}

// GetMyProjectsHandler возвращает проекты клиента
func (h *Handler) GetMyProjectsHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	params := parsePaginationParams(r)

	projects, err := h.Store.GetClientProjects(r.Context(), identity.ID, params.Limit, params.Offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	for i := range projects {
		h.sweepDeadline(r, &projects[i])
	}

	common.RespondWithJSON(w, http.StatusOK, projects)
}

type projectDetail struct {
	Project    *models.Project                      `json:"project"`
	Bids       []models.Bid                         `json:"bids,omitempty"`
	Rejections []models.Rejection                   `json:"rejections"`
	Deliveries map[models.Stage]map[string][]string `json:"deliveries"`
	// Сводка рейтинга клиента видна всем, рейтинги исполнителей только владельцу
	ClientRating      *core.RatingSummary        `json:"clientRating,omitempty"`
	ContractorRatings map[int]core.RatingSummary `json:"contractorRatings,omitempty"`
	CanReview         bool                       `json:"canReview"`
	ReviewDimensions  *core.Dimensions           `json:"reviewDimensions,omitempty"`
	ReviewWindowDays  int                        `json:"reviewWindowDays"`
}

func (h *Handler) ratingSummary(r *http.Request, userID, limit int) (core.RatingSummary, error) {
	reviews, err := h.Store.GetReviewsForReviewee(r.Context(), userID)
	if err != nil {
		return core.RatingSummary{}, err
	}
	ids := make([]int, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ReviewerID)
	}
	names, err := h.Store.GetUsernames(r.Context(), ids)
	if err != nil {
		return core.RatingSummary{}, err
	}
	return core.Summarize(reviews, names, limit), nil
}

// GetProjectHandler возвращает карточку проекта: статус, отклонения,
// историю сдач, рейтинг контрагента и допуск к отзыву
func (h *Handler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
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

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.sweepDeadline(r, project)

	detail := projectDetail{
		Project:          project,
		Deliveries:       map[models.Stage]map[string][]string{},
		ReviewWindowDays: core.ReviewWindowDays,
	}

	detail.Rejections, err = h.Store.GetRejections(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// История сдач из строк метаданных, не из листинга хранилища
	events, err := h.Store.GetDeliveryEvents(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	for _, e := range events {
		if detail.Deliveries[e.Stage] == nil {
			detail.Deliveries[e.Stage] = map[string][]string{}
		}
		detail.Deliveries[e.Stage][e.DateBucket] = append(detail.Deliveries[e.Stage][e.DateBucket], e.Filename)
	}

	clientRating, err := h.ratingSummary(r, project.ClientID, core.DefaultRecentComments)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	detail.ClientRating = &clientRating

	if identity.ID == project.ClientID {
		detail.Bids, err = h.Store.GetBidsForProject(r.Context(), projectID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		detail.ContractorRatings = map[int]core.RatingSummary{}
		for _, b := range detail.Bids {
			if _, seen := detail.ContractorRatings[b.ContractorID]; seen {
				continue
			}
			summary, err := h.ratingSummary(r, b.ContractorID, core.DefaultRecentComments)
			if err != nil {
				respondDomainError(w, err)
				return
			}
			detail.ContractorRatings[b.ContractorID] = summary
		}
	}

	if revieweeID, revieweeRole, err := core.Counterpart(project, identity.ID); err == nil {
		already, err := h.Store.HasReview(r.Context(), projectID, identity.ID, revieweeID)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		detail.CanReview = core.CanSubmitReview(project, identity.ID, revieweeID, already, time.Now())
		if detail.CanReview {
			dims := core.RoleDimensions(revieweeRole)
			detail.ReviewDimensions = &dims
		}
	}

	common.RespondWithJSON(w, http.StatusOK, detail)
}

// AssignContractorHandler обрабатывает выбор исполнителя клиентом
func (h *Handler) AssignContractorHandler(w http.ResponseWriter, r *http.Request) {
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

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Cannot read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var input struct {
		ContractorID int `json:"contractorId"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if input.ContractorID <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "contractorId must be positive")
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.sweepDeadline(r, project)

	if err := core.CanAssign(project, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	// Выбор исполнителя и смена статусов предложений идут одной транзакцией
	if err := h.Store.AssignContractor(r.Context(), projectID, input.ContractorID); err != nil {
		respondDomainError(w, err)
		return
	}

	project, err = h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

// RequestCloseHandler обрабатывает запрос исполнителя о готовности сдачи
func (h *Handler) RequestCloseHandler(w http.ResponseWriter, r *http.Request) {
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

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := core.CanRequestClose(project, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.Store.RequestClose(r.Context(), projectID); err != nil {
		respondDomainError(w, err)
		return
	}

	project.Status = models.StatusRequestClose
	project.CloseRequested = true
	common.RespondWithJSON(w, http.StatusOK, project)
}

// DecisionHandler обрабатывает решение клиента по запросу закрытия: close или reject
func (h *Handler) DecisionHandler(w http.ResponseWriter, r *http.Request) {
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

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Cannot read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var input struct {
		Decision    string `json:"decision"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Decision != "close" && input.Decision != "reject" {
		common.RespondWithError(w, http.StatusBadRequest, "decision must be 'close' or 'reject'")
		return
	}
	if input.Explanation == "" {
		common.RespondWithError(w, http.StatusBadRequest, "explanation is required")
		return
	}

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := core.CanDecide(project, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	now := time.Now()
	if input.Decision == "close" {
		if err := h.Store.CloseProject(r.Context(), projectID, input.Explanation, now); err != nil {
			respondDomainError(w, err)
			return
		}
	} else {
		movedBucket, err := h.Store.RejectCloseRequest(r.Context(), projectID, input.Explanation, now)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		// Последняя сдача уезжает из final в rejected и в хранилище
		if movedBucket != "" {
			src := path.Join(project.Title, string(models.StageFinal), movedBucket)
			dst := path.Join(project.Title, string(models.StageRejected), movedBucket)
			if err := h.Blob.Move(r.Context(), src, dst); err != nil {
				log.Printf("failed to relocate rejected delivery %s: %v", src, err)
				common.RespondWithError(w, http.StatusInternalServerError, "failed to relocate delivery files")
				return
			}
		}
	}

	project, err = h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

// DeleteProjectHandler удаляет проект клиента вместе с предложениями
func (h *Handler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
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

	project, err := h.Store.GetProject(r.Context(), projectID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := core.CanDeleteProject(project, identity); err != nil {
		respondDomainError(w, err)
		return
	}

	if err := h.Store.DeleteProject(r.Context(), projectID); err != nil {
		respondDomainError(w, err)
		return
	}

	// Объекты проекта в блобе чистим по возможности; строки уже удалены
	if err := h.Blob.RemovePrefix(r.Context(), project.Title); err != nil {
		log.Printf("failed to remove blob objects for project %d: %v", projectID, err)
	}

	w.WriteHeader(http.StatusNoContent)
}
