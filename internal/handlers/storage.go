package handlers

import (
	"context"
	"io"
	"time"

	"freelance/models"
)

type StorageInterface interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsernames(ctx context.Context, ids []int) (map[int]string, error)

	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id int) (*models.Project, error)
	GetOpenProjects(ctx context.Context, limit, offset int) ([]models.Project, error)
	GetClientProjects(ctx context.Context, clientID, limit, offset int) ([]models.Project, error)
	DeleteProject(ctx context.Context, id int) error
	MarkNoBid(ctx context.Context, projectID int) error
	AssignContractor(ctx context.Context, projectID, contractorID int) error
	RequestClose(ctx context.Context, projectID int) error
	CloseProject(ctx context.Context, projectID int, explanation string, now time.Time) error
	RejectCloseRequest(ctx context.Context, projectID int, explanation string, now time.Time) (string, error)

	SubmitBid(ctx context.Context, b *models.Bid, now time.Time) error
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	GetUserBids(ctx context.Context, contractorID, limit, offset int) ([]models.Bid, error)
	GetBidsForProject(ctx context.Context, projectID int) ([]models.Bid, error)
	HasBid(ctx context.Context, projectID, contractorID int) (bool, error)
	DeleteBid(ctx context.Context, id int) error

	GetRejections(ctx context.Context, projectID int) ([]models.Rejection, error)

	CreateReview(ctx context.Context, r *models.Review) error
	HasReview(ctx context.Context, projectID, reviewerID, revieweeID int) (bool, error)
	GetReviewsForReviewee(ctx context.Context, revieweeID int) ([]models.Review, error)

	CreateDeliveryEvent(ctx context.Context, e *models.DeliveryEvent) error
	GetDeliveryEvents(ctx context.Context, projectID int) ([]models.DeliveryEvent, error)
}

type BlobStore interface {
	Write(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	ListChildren(ctx context.Context, prefix string) ([]string, error)
	ArchiveZip(ctx context.Context, prefix string, w io.Writer) error
	Move(ctx context.Context, srcPrefix, dstPrefix string) error
	RemovePrefix(ctx context.Context, prefix string) error
}
