package handler

import "github.com/sunilprojects/smart-campus-resource-management/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Resource     *ResourceHandler
	Booking      *BookingHandler
	Review       *ReviewHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
	SystemConfig *SystemConfigHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Resource:     NewResourceHandler(svc.Resource),
		Booking:      NewBookingHandler(svc.Booking),
		Review:       NewReviewHandler(svc.Review),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		Export:       NewExportHandler(svc.Report),
		SystemConfig: NewSystemConfigHandler(svc.RoleLimit),
	}
}
