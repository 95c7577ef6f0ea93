package core

import (
	"fmt"
	"sort"
	"time"

	"freelance/models"
)

const DefaultRecentComments = 5

type RatingComment struct {
	ReviewerName string    `json:"reviewerName"`
	AvgScore     float64   `json:"avgScore"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RatingSummary struct {
	AvgRating      float64         `json:"avgRating"`
	Count          int             `json:"count"`
	RecentComments []RatingComment `json:"recentComments"`
}

// Summarize считает сводку рейтинга по всем отзывам о пользователе.
// Итог считается как среднее от средних по каждому отзыву (двухуровневое среднее,
// не общий пул баллов); 0.0 при отсутствии отзывов. В комментарии
// попадают до limit последних непустых, новые первыми.
func Summarize(reviews []models.Review, reviewerNames map[int]string, limit int) RatingSummary {
	if limit <= 0 {
		limit = DefaultRecentComments
	}

	summary := RatingSummary{RecentComments: []RatingComment{}}
	summary.Count = len(reviews)
	if len(reviews) == 0 {
		return summary
	}

	var total float64
	for _, r := range reviews {
		total += r.AvgScore()
	}
	summary.AvgRating = total / float64(len(reviews))

	sorted := make([]models.Review, len(reviews))
	copy(sorted, reviews)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, r := range sorted {
		if r.Comment == "" {
			continue
		}
		name, ok := reviewerNames[r.ReviewerID]
		if !ok || name == "" {
			// Рецензент мог быть удален
			name = fmt.Sprintf("user#%d", r.ReviewerID)
		}
		summary.RecentComments = append(summary.RecentComments, RatingComment{
			ReviewerName: name,
			AvgScore:     r.AvgScore(),
			Comment:      r.Comment,
			CreatedAt:    r.CreatedAt,
		})
		if len(summary.RecentComments) == limit {
			break
		}
	}
	return summary
}
