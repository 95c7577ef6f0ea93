package core

import (
	"time"

	"freelance/internal/common"
	"freelance/models"
)

// Окно взаимной оценки после закрытия проекта, в днях
const ReviewWindowDays = 7

// Подписи трех измерений оценки в зависимости от роли оцениваемого
type Dimensions [3]string

var (
	clientDimensions     = Dimensions{"requirement clarity", "acceptance difficulty", "cooperation attitude"}
	contractorDimensions = Dimensions{"output quality", "execution efficiency", "cooperation attitude"}
)

// RoleDimensions возвращает подписи измерений; сами баллы безразмерные 1..5
func RoleDimensions(role models.Role) Dimensions {
	if role == models.RoleClient {
		return clientDimensions
	}
	return contractorDimensions
}

// Counterpart выводит оцениваемого из пары клиент/исполнитель проекта
// относительно рецензента. Идентификатор оцениваемого никогда не
// принимается от клиента.
func Counterpart(p *models.Project, reviewerID int) (revieweeID int, revieweeRole models.Role, err error) {
	if p.AssignedContractorID == nil {
		return 0, "", common.ErrInvalidState
	}
	switch reviewerID {
	case p.ClientID:
		return *p.AssignedContractorID, models.RoleContractor, nil
	case *p.AssignedContractorID:
		return p.ClientID, models.RoleClient, nil
	}
	return 0, "", common.ErrForbidden
}

// CanSubmitReview проверяет допуск к отзыву:
//  1. проект закрыт;
//  2. пара {рецензент, оцениваемый} == {клиент, исполнитель};
//  3. не позже ReviewWindowDays после закрытия;
//  4. по этой направленной паре отзыва еще нет.
func CanSubmitReview(p *models.Project, reviewerID, revieweeID int, alreadyReviewed bool, now time.Time) bool {
	if p == nil || p.Status != models.StatusClosed || p.AssignedContractorID == nil {
		return false
	}
	if reviewerID == revieweeID {
		return false
	}
	validPair := (reviewerID == p.ClientID && revieweeID == *p.AssignedContractorID) ||
		(reviewerID == *p.AssignedContractorID && revieweeID == p.ClientID)
	if !validPair {
		return false
	}
	if p.CloseTime != nil {
		deadline := p.CloseTime.Add(ReviewWindowDays * 24 * time.Hour)
		if now.After(deadline) {
			return false
		}
	}
	return !alreadyReviewed
}

// ValidateScores проверяет, что каждый балл строго в диапазоне 1..5
func ValidateScores(scores ...int) error {
	for _, s := range scores {
		if s < 1 || s > 5 {
			return common.ErrValidation
		}
	}
	return nil
}
