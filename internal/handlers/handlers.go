package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"freelance/internal/common"
)

// Handler оборачивает Storage и блоб-хранилище для доступа к данным
type Handler struct {
	Store StorageInterface
	Blob  BlobStore
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, blob BlobStore) *Handler {
	return &Handler{Store: store, Blob: blob}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 20 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

// respondDomainError переводит доменную ошибку в HTTP-ответ,
// скрывая детали внутренних ошибок
func respondDomainError(w http.ResponseWriter, err error) {
	code := common.HTTPStatusFromError(err)
	if code == http.StatusInternalServerError {
		common.RespondWithError(w, code, common.ErrInternal.Error())
		return
	}
	for _, sentinel := range []error{
		common.ErrUnauthenticated, common.ErrForbidden, common.ErrNotFound,
		common.ErrInvalidState, common.ErrValidation,
	} {
		if errors.Is(err, sentinel) {
			common.RespondWithError(w, code, sentinel.Error())
			return
		}
	}
	common.RespondWithError(w, code, err.Error())
}
