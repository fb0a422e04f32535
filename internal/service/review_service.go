package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
)

// ── 评价模块业务错误 ──

var (
	ErrReviewNotFound   = errors.New("评价不存在")
	ErrReviewExists     = errors.New("该预约已评价")
	ErrReviewNotAllowed = errors.New("只能评价已完成的预约")
)

// ReviewService 评价业务接口
type ReviewService interface {
	Create(ctx context.Context, req *dto.CreateReviewRequest, callerID string) (*dto.ReviewResponse, error)
	ListByResource(ctx context.Context, resourceID string, page *dto.PaginationRequest) ([]dto.ReviewResponse, int64, error)
	ListMine(ctx context.Context, userID string) ([]dto.ReviewResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateReviewRequest, callerID string) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, id, callerID, callerRole string) error
	Summary(ctx context.Context, resourceID string) (*dto.RatingSummaryResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, logger: logger}
}

// Create 只有预约人可以评价自己已完成的预约，每个预约一条
func (s *reviewService) Create(ctx context.Context, req *dto.CreateReviewRequest, callerID string) (*dto.ReviewResponse, error) {
	b, err := s.repo.Booking.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.UserID != callerID {
		return nil, ErrNoPermission
	}
	if b.Status != model.BookingStatusCompleted {
		return nil, ErrReviewNotAllowed
	}

	exists, err := s.repo.Review.ExistsForBooking(ctx, b.BookingID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &model.Review{
		BookingID:  b.BookingID,
		ResourceID: b.ResourceID,
		UserID:     callerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrReviewExists
		}
		s.logger.Error("创建评价失败", zap.String("booking_id", b.BookingID), zap.Error(err))
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) ListByResource(ctx context.Context, resourceID string, page *dto.PaginationRequest) ([]dto.ReviewResponse, int64, error) {
	reviews, total, err := s.repo.Review.ListByResource(ctx, resourceID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out, total, nil
}

func (s *reviewService) ListMine(ctx context.Context, userID string) ([]dto.ReviewResponse, error) {
	reviews, err := s.repo.Review.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out, nil
}

func (s *reviewService) Update(ctx context.Context, id string, req *dto.UpdateReviewRequest, callerID string) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != callerID {
		return nil, ErrNoPermission
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.logger.Error("更新评价失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

// Delete 本人或管理员可删除
func (s *reviewService) Delete(ctx context.Context, id, callerID, callerRole string) error {
	review, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if callerRole != model.RoleAdmin && review.UserID != callerID {
		return ErrNoPermission
	}
	return s.repo.Review.Delete(ctx, id)
}

func (s *reviewService) Summary(ctx context.Context, resourceID string) (*dto.RatingSummaryResponse, error) {
	ratings, err := s.repo.Review.RatingsByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	sum := booking.SummarizeRatings(ratings)
	dist := make(map[string]int, len(sum.Distribution))
	for k, v := range sum.Distribution {
		dist[strconv.Itoa(k)] = v
	}
	return &dto.RatingSummaryResponse{
		ResourceID:   resourceID,
		Average:      sum.Average,
		Count:        sum.Count,
		Distribution: dist,
	}, nil
}

func (s *reviewService) load(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}
