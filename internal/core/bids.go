package core

import (
	"time"

	"freelance/internal/common"
	"freelance/models"
)

// CanSubmitBid принимает предложение только по открытому проекту
// до дедлайна и только от исполнителя. Дубликат по паре
// (проект, исполнитель) дополнительно отсекается уникальным индексом
// на коммите.
func CanSubmitBid(p *models.Project, caller Identity, now time.Time) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if !caller.IsContractor() {
		return common.ErrForbidden
	}
	if p.Status != models.StatusOpen {
		return common.ErrInvalidState
	}
	if now.After(p.ProposalDeadline) {
		return common.ErrInvalidState
	}
	return nil
}

// CanRemoveBid разрешает исполнителю удалить только свое и только отклоненное
// предложение: pending и accepted через удаление не отзываются
func CanRemoveBid(b *models.Bid, caller Identity) error {
	if caller.ID == 0 {
		return common.ErrUnauthenticated
	}
	if caller.ID != b.ContractorID {
		return common.ErrForbidden
	}
	if b.Status != models.BidRejected {
		return common.ErrInvalidState
	}
	return nil
}
