package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"freelance/internal/common"
	"freelance/models"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	return err
}

// User (Пользователь)

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	query := `
        INSERT INTO users (username, role, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query, u.Username, u.Role, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt)
}

func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE id=$1`
	err := s.db.GetContext(ctx, u, query, id)
	return u, notFound(err)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	query := `SELECT * FROM users WHERE username=$1`
	err := s.db.GetContext(ctx, u, query, username)
	return u, notFound(err)
}

// GetUsernames возвращает имена по набору id для подписи комментариев
func (s *Storage) GetUsernames(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	query, args, err := sqlx.In(`SELECT id, username FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// Project (Проект)

func (s *Storage) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
        INSERT INTO project (title, description, client_id, status, proposal_deadline)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		p.Title, p.Description, p.ClientID, p.Status, p.ProposalDeadline).
		Scan(&p.ID, &p.CreatedAt)
}

func (s *Storage) GetProject(ctx context.Context, id int) (*models.Project, error) {
	p := &models.Project{}
	query := `SELECT * FROM project WHERE id=$1`
	err := s.db.GetContext(ctx, p, query, id)
	return p, notFound(err)
}

func (s *Storage) GetOpenProjects(ctx context.Context, limit, offset int) ([]models.Project, error) {
	query := `
        SELECT * FROM project
        WHERE status='open'
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	projects := []models.Project{}
	err := s.db.SelectContext(ctx, &projects, query, limit, offset)
	return projects, err
}

func (s *Storage) GetClientProjects(ctx context.Context, clientID, limit, offset int) ([]models.Project, error) {
	query := `
        SELECT * FROM project
        WHERE client_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	projects := []models.Project{}
	err := s.db.SelectContext(ctx, &projects, query, clientID, limit, offset)
	return projects, err
}

// DeleteProject удаляет проект; предложения, отклонения, отзывы и
// записи о файлах уходят каскадом по внешним ключам
func (s *Storage) DeleteProject(ctx context.Context, id int) error {
	query := `DELETE FROM project WHERE id=$1`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// MarkNoBid лениво переводит open -> no_bid после дедлайна.
// Условие в WHERE делает вызов идемпотентным.
func (s *Storage) MarkNoBid(ctx context.Context, projectID int) error {
	query := `
        UPDATE project SET status='no_bid'
        WHERE id=$1 AND status='open' AND proposal_deadline < NOW()`
	_, err := s.db.ExecContext(ctx, query, projectID)
	return err
}

// AssignContractor одной транзакцией выбирает исполнителя, переводит
// проект в in_process, предложение победителя -> accepted, остальные
// -> rejected.
// Предусловия перепроверяются под блокировкой строки, так что два
// конкурирующих выбора не проходят оба.
func (s *Storage) AssignContractor(ctx context.Context, projectID, contractorID int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status models.ProjectStatus
	var assigned *int
	query := `SELECT status, assigned_contractor_id FROM project WHERE id=$1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, projectID).Scan(&status, &assigned); err != nil {
		return notFound(err)
	}
	if status != models.StatusOpen || assigned != nil {
		return common.ErrInvalidState
	}

	query = `
        UPDATE project
        SET assigned_contractor_id=$1, status='in_process'
        WHERE id=$2`
	if _, err := tx.ExecContext(ctx, query, contractorID, projectID); err != nil {
		return err
	}

	query = `UPDATE bid SET status='accepted' WHERE project_id=$1 AND contractor_id=$2`
	res, err := tx.ExecContext(ctx, query, projectID, contractorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		// У победителя должно быть ровно одно предложение
		return common.ErrNotFound
	}

	query = `UPDATE bid SET status='rejected' WHERE project_id=$1 AND contractor_id<>$2`
	if _, err := tx.ExecContext(ctx, query, projectID, contractorID); err != nil {
		return err
	}

	return tx.Commit()
}

// RequestClose выполняет переход in_process -> request_close; 0 строк значит,
// что проект не в том статусе
func (s *Storage) RequestClose(ctx context.Context, projectID int) error {
	query := `
        UPDATE project
        SET status='request_close', close_requested=TRUE
        WHERE id=$1 AND status='in_process'`
	res, err := s.db.ExecContext(ctx, query, projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// CloseProject выполняет переход request_close -> closed с фиксацией времени
// и пояснения
func (s *Storage) CloseProject(ctx context.Context, projectID int, explanation string, now time.Time) error {
	query := `
        UPDATE project
        SET status='closed', close_requested=FALSE, close_time=$2, close_explanation=$3
        WHERE id=$1 AND status='request_close'`
	res, err := s.db.ExecContext(ctx, query, projectID, now, explanation)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrInvalidState
	}
	return nil
}

// RejectCloseRequest выполняет переход request_close -> in_process с записью
// Rejection. Последний сданный final-бакет перемечается в rejected в той
// же транзакции; его имя возвращается для переноса объектов в блобе.
func (s *Storage) RejectCloseRequest(ctx context.Context, projectID int, explanation string, now time.Time) (movedBucket string, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	query := `
        UPDATE project
        SET status='in_process', close_requested=FALSE
        WHERE id=$1 AND status='request_close'`
	res, err := tx.ExecContext(ctx, query, projectID)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", common.ErrInvalidState
	}

	query = `INSERT INTO project_rejection (project_id, explanation, created_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, projectID, explanation, now); err != nil {
		return "", err
	}

	query = `
        SELECT COALESCE(MAX(date_bucket), '')
        FROM delivery_event
        WHERE project_id=$1 AND stage='final'`
	if err := tx.QueryRowContext(ctx, query, projectID).Scan(&movedBucket); err != nil {
		return "", err
	}
	if movedBucket != "" {
		// Путь пересобирается из колонок: замена подстроки ломала бы
		// ключ, если '/final/' встречается в названии проекта
		query = `
            UPDATE delivery_event e
            SET stage='rejected',
                path = p.title || '/rejected/' || e.date_bucket || '/' || e.filename
            FROM project p
            WHERE p.id=e.project_id AND e.project_id=$1
              AND e.stage='final' AND e.date_bucket=$2`
		if _, err := tx.ExecContext(ctx, query, projectID, movedBucket); err != nil {
			return "", err
		}
	}

	return movedBucket, tx.Commit()
}

// Bid (Предложение)

// SubmitBid перепроверяет статус и дедлайн под блокировкой строки
// проекта; дубликат по (project_id, contractor_id) ловит уникальный
// индекс
func (s *Storage) SubmitBid(ctx context.Context, b *models.Bid, now time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status models.ProjectStatus
	var deadline time.Time
	query := `SELECT status, proposal_deadline FROM project WHERE id=$1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, b.ProjectID).Scan(&status, &deadline); err != nil {
		return notFound(err)
	}
	if status != models.StatusOpen || now.After(deadline) {
		return common.ErrInvalidState
	}

	query = `
        INSERT INTO bid (project_id, contractor_id, price, proposal_path, status)
        VALUES ($1, $2, $3, $4, 'pending')
        RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		b.ProjectID, b.ContractorID, b.Price, b.ProposalPath).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("duplicate bid: %w", common.ErrInvalidState)
		}
		return err
	}
	b.Status = models.BidPending

	return tx.Commit()
}

func (s *Storage) GetBid(ctx context.Context, id int) (*models.Bid, error) {
	b := &models.Bid{}
	query := `SELECT * FROM bid WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, notFound(err)
}

func (s *Storage) GetUserBids(ctx context.Context, contractorID, limit, offset int) ([]models.Bid, error) {
	query := `
        SELECT * FROM bid
        WHERE contractor_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	bids := []models.Bid{}
	err := s.db.SelectContext(ctx, &bids, query, contractorID, limit, offset)
	return bids, err
}

func (s *Storage) GetBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error) {
	query := `
        SELECT * FROM bid
        WHERE project_id=$1
        ORDER BY created_at DESC`
	bids := []models.Bid{}
	err := s.db.SelectContext(ctx, &bids, query, projectID)
	return bids, err
}

func (s *Storage) HasBid(ctx context.Context, projectID, contractorID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM bid WHERE project_id=$1 AND contractor_id=$2`
	err := s.db.GetContext(ctx, &count, query, projectID, contractorID)
	return count > 0, err
}

func (s *Storage) DeleteBid(ctx context.Context, id int) error {
	query := `DELETE FROM bid WHERE id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

// Rejection (Отклонение сдачи)

func (s *Storage) GetRejections(ctx context.Context, projectID int) ([]models.Rejection, error) {
	query := `
        SELECT * FROM project_rejection
        WHERE project_id=$1
        ORDER BY created_at DESC`
	rejections := []models.Rejection{}
	err := s.db.SelectContext(ctx, &rejections, query, projectID)
	return rejections, err
}

// Review (Отзыв)

func (s *Storage) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
        INSERT INTO review
            (project_id, reviewer_id, reviewee_id, reviewee_role, score1, score2, score3, comment)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		r.ProjectID, r.ReviewerID, r.RevieweeID, r.RevieweeRole,
		r.Score1, r.Score2, r.Score3, r.Comment).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil && common.IsUniqueViolation(err) {
		return fmt.Errorf("review already submitted: %w", common.ErrInvalidState)
	}
	return err
}

func (s *Storage) HasReview(ctx context.Context, projectID, reviewerID, revieweeID int) (bool, error) {
	var count int
	query := `
        SELECT COUNT(1) FROM review
        WHERE project_id=$1 AND reviewer_id=$2 AND reviewee_id=$3`
	err := s.db.GetContext(ctx, &count, query, projectID, reviewerID, revieweeID)
	return count > 0, err
}

func (s *Storage) GetReviewsForReviewee(ctx context.Context, revieweeID int) ([]models.Review, error) {
	query := `
        SELECT * FROM review
        WHERE reviewee_id=$1
        ORDER BY created_at DESC`
	reviews := []models.Review{}
	err := s.db.SelectContext(ctx, &reviews, query, revieweeID)
	return reviews, err
}

// DeliveryEvent (Файл сдачи)

func (s *Storage) CreateDeliveryEvent(ctx context.Context, e *models.DeliveryEvent) error {
	query := `
        INSERT INTO delivery_event (project_id, uploader_id, stage, date_bucket, filename, path)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return s.db.QueryRowContext(ctx, query,
		e.ProjectID, e.UploaderID, e.Stage, e.DateBucket, e.Filename, e.Path).
		Scan(&e.ID, &e.CreatedAt)
}

func (s *Storage) GetDeliveryEvents(ctx context.Context, projectID int) ([]models.DeliveryEvent, error) {
	query := `
        SELECT * FROM delivery_event
        WHERE project_id=$1
        ORDER BY created_at DESC`
	events := []models.DeliveryEvent{}
	err := s.db.SelectContext(ctx, &events, query, projectID)
	return events, err
}
