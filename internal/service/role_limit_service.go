package service

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
)

var ErrUnknownRole = errors.New("未知角色")

// RoleLimitService 角色预约配额配置
type RoleLimitService interface {
	List(ctx context.Context) ([]dto.RoleLimitResponse, error)
	Update(ctx context.Context, role string, req *dto.UpdateRoleLimitRequest, callerID string) (*dto.RoleLimitResponse, error)
}

type roleLimitService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoleLimitService 创建 RoleLimitService 实例
func NewRoleLimitService(repo *repository.Repository, logger *zap.Logger) RoleLimitService {
	return &roleLimitService{repo: repo, logger: logger}
}

// List 返回生效中的配额：数据库记录覆盖内置默认
func (s *roleLimitService) List(ctx context.Context) ([]dto.RoleLimitResponse, error) {
	rows, err := s.repo.RoleLimit.List(ctx)
	if err != nil {
		s.logger.Error("查询角色配额失败", zap.Error(err))
		return nil, err
	}
	stored := make(map[string]model.RoleLimit, len(rows))
	for _, r := range rows {
		stored[r.Role] = r
	}

	table := model.LimitTableOf(rows)
	roles := []booking.Role{booking.RoleStudent, booking.RoleFaculty, booking.RoleAdmin}
	out := make([]dto.RoleLimitResponse, 0, len(roles))
	for _, role := range roles {
		row, ok := stored[string(role)]
		if !ok {
			l := table.For(role)
			row = model.RoleLimit{
				Role:               string(role),
				MaxActiveBookings:  l.MaxActiveBookings,
				AdvanceDays:        l.AdvanceDays,
				MaxDurationMinutes: l.MaxDurationMinutes,
				CancelLeadHours:    l.CancelLeadHours,
			}
		}
		out = append(out, toRoleLimitResponse(&row))
	}
	return out, nil
}

func (s *roleLimitService) Update(ctx context.Context, role string, req *dto.UpdateRoleLimitRequest, callerID string) (*dto.RoleLimitResponse, error) {
	if !slices.Contains([]string{model.RoleStudent, model.RoleFaculty, model.RoleAdmin}, role) {
		return nil, ErrUnknownRole
	}
	row := &model.RoleLimit{
		Role:               role,
		MaxActiveBookings:  req.MaxActiveBookings,
		AdvanceDays:        req.AdvanceDays,
		MaxDurationMinutes: req.MaxDurationMinutes,
		CancelLeadHours:    req.CancelLeadHours,
		UpdatedBy:          &callerID,
	}
	if err := s.repo.RoleLimit.Upsert(ctx, row); err != nil {
		s.logger.Error("更新角色配额失败", zap.String("role", role), zap.Error(err))
		return nil, err
	}
	s.logger.Info("角色配额已更新", zap.String("role", role), zap.String("by", callerID))
	resp := toRoleLimitResponse(row)
	return &resp, nil
}
