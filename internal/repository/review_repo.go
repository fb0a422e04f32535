package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
	ListByResource(ctx context.Context, resourceID string, offset, limit int) ([]model.Review, int64, error)
	ListByUser(ctx context.Context, userID string) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error
	RatingsByResource(ctx context.Context, resourceID string) ([]int, error)
}

type reviewRepo struct {
	db *gorm.DB
}

func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	return translateError(r.db.WithContext(ctx).Omit("User").Create(review).Error)
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("booking_id = ?", bookingID).
		Count(&n).Error
	return n > 0, err
}

func (r *reviewRepo) ListByResource(ctx context.Context, resourceID string, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Review{}).Where("resource_id = ?", resourceID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *reviewRepo) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepo) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("review_id = ?", review.ReviewID).
		Updates(map[string]any{
			"rating":  review.Rating,
			"comment": review.Comment,
		}).Error
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("review_id = ?", id).
		Delete(&model.Review{}).Error
}

func (r *reviewRepo) RatingsByResource(ctx context.Context, resourceID string) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("resource_id = ?", resourceID).
		Pluck("rating", &ratings).Error
	return ratings, err
}
