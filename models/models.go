package models

import "time"

// Роль пользователя фиксируется при регистрации и не меняется
type Role string

const (
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleContractor
}

// Статус проекта
type ProjectStatus string

const (
	StatusOpen         ProjectStatus = "open"
	StatusInProcess    ProjectStatus = "in_process"
	StatusRequestClose ProjectStatus = "request_close"
	StatusClosed       ProjectStatus = "closed"
	StatusNoBid        ProjectStatus = "no_bid"
)

// Статус предложения
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Этап файлов проекта в блоб-хранилище
type Stage string

const (
	StageInProcess Stage = "in_process"
	StageFinal     Stage = "final"
	StageRejected  Stage = "rejected"
)

func (s Stage) Valid() bool {
	return s == StageInProcess || s == StageFinal || s == StageRejected
}

// Сущность Пользователя
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username" validate:"required,max=80"`
	Role         Role      `db:"role" json:"role" validate:"required,oneof=client contractor"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Проекта
type Project struct {
	ID                   int           `db:"id" json:"id"`
	Title                string        `db:"title" json:"title" validate:"required,max=100"`
	Description          string        `db:"description" json:"description" validate:"required,max=2000"`
	ClientID             int           `db:"client_id" json:"clientId"`
	AssignedContractorID *int          `db:"assigned_contractor_id" json:"assignedContractorId"`
	Status               ProjectStatus `db:"status" json:"status"`
	CloseRequested       bool          `db:"close_requested" json:"closeRequested"`
	ProposalDeadline     time.Time     `db:"proposal_deadline" json:"proposalDeadline" validate:"required"`
	CreatedAt            time.Time     `db:"created_at" json:"createdAt"`
	CloseTime            *time.Time    `db:"close_time" json:"closeTime"`
	CloseExplanation     *string       `db:"close_explanation" json:"closeExplanation"`
}

// Сущность Предложения
type Bid struct {
	ID           int       `db:"id" json:"id"`
	ProjectID    int       `db:"project_id" json:"projectId" validate:"required"`
	ContractorID int       `db:"contractor_id" json:"contractorId"`
	Price        float64   `db:"price" json:"price" validate:"required,gt=0"`
	ProposalPath *string   `db:"proposal_path" json:"proposalPath"`
	Status       BidStatus `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Отклонения сдачи. Только добавляется, никогда не меняется
type Rejection struct {
	ID          int       `db:"id" json:"id"`
	ProjectID   int       `db:"project_id" json:"projectId"`
	Explanation string    `db:"explanation" json:"explanation"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Отзыва. Создается один раз после закрытия проекта
type Review struct {
	ID           int       `db:"id" json:"id"`
	ProjectID    int       `db:"project_id" json:"projectId"`
	ReviewerID   int       `db:"reviewer_id" json:"reviewerId"`
	RevieweeID   int       `db:"reviewee_id" json:"revieweeId"`
	RevieweeRole Role      `db:"reviewee_role" json:"revieweeRole"`
	Score1       int       `db:"score1" json:"score1" validate:"required,min=1,max=5"`
	Score2       int       `db:"score2" json:"score2" validate:"required,min=1,max=5"`
	Score3       int       `db:"score3" json:"score3" validate:"required,min=1,max=5"`
	Comment      string    `db:"comment" json:"comment"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Средняя оценка одного отзыва по трем измерениям
func (r Review) AvgScore() float64 {
	return float64(r.Score1+r.Score2+r.Score3) / 3.0
}

// Сущность Файла сдачи. Метаданные загрузки в блоб-хранилище
type DeliveryEvent struct {
	ID         int       `db:"id" json:"id"`
	ProjectID  int       `db:"project_id" json:"projectId"`
	UploaderID int       `db:"uploader_id" json:"uploaderId"`
	Stage      Stage     `db:"stage" json:"stage"`
	DateBucket string    `db:"date_bucket" json:"dateBucket"`
	Filename   string    `db:"filename" json:"filename"`
	Path       string    `db:"path" json:"path"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
