package core

import (
	"time"

	"freelance/internal/common"
	"freelance/models"
)

// Переходы статусов проекта:
//
//	open -> in_process     (клиент выбирает исполнителя)
//	in_process -> request_close  (исполнитель сдает работу)
//	request_close -> closed      (клиент принимает)
//	request_close -> in_process  (клиент отклоняет, пишется Rejection)
//	open -> no_bid         (дедлайн прошел без выбора, тупиковый статус)
//
// Любая проверка возвращает ошибку и не меняет состояние.

// CanAssign разрешает клиенту-владельцу выбрать исполнителя по открытому проекту
func CanAssign(p *models.Project, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if caller.ID != p.ClientID {
		return common.ErrForbidden
	}
	if p.Status != models.StatusOpen || p.AssignedContractorID != nil {
		return common.ErrInvalidState
	}
	return nil
}

// CanRequestClose разрешает назначенному исполнителю запросить закрытие
func CanRequestClose(p *models.Project, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if p.AssignedContractorID == nil || caller.ID != *p.AssignedContractorID {
		return common.ErrForbidden
	}
	if p.Status != models.StatusInProcess {
		return common.ErrInvalidState
	}
	return nil
}

// CanDecide разрешает клиенту-владельцу принять решение по запросу закрытия
func CanDecide(p *models.Project, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if caller.ID != p.ClientID {
		return common.ErrForbidden
	}
	if p.Status != models.StatusRequestClose {
		return common.ErrInvalidState
	}
	return nil
}

// CanUpload разрешает назначенному исполнителю загружать файлы, пока проект не закрыт
func CanUpload(p *models.Project, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if p.AssignedContractorID == nil || caller.ID != *p.AssignedContractorID {
		return common.ErrForbidden
	}
	if p.Status != models.StatusInProcess && p.Status != models.StatusRequestClose {
		return common.ErrInvalidState
	}
	return nil
}

// CanDeleteProject разрешает удалять проект только клиенту-владельцу
func CanDeleteProject(p *models.Project, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if caller.ID != p.ClientID {
		return common.ErrForbidden
	}
	return nil
}

// DeadlineExpired отмечает открытый проект с прошедшим дедлайном для
// перевода в no_bid при чтении; повторная проверка по уже переведенному
// проекту ничего не меняет
func DeadlineExpired(p *models.Project, now time.Time) bool {
	return p.Status == models.StatusOpen && now.After(p.ProposalDeadline)
}
