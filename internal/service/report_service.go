package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/internal/dto"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoBookings   = errors.New("没有符合条件的预约")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// maxExportRows 单次导出的最大行数
const maxExportRows = 10000

// ReportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ReportService interface {
	ExportBookings(ctx context.Context, req *dto.BookingListRequest) (*bytes.Buffer, string, error)
	// ExportCalendar 本人预约的 iCalendar 文件，已取消的预约以 STATUS:CANCELLED 保留
	ExportCalendar(ctx context.Context, userID string) (*bytes.Buffer, string, error)
}

type reportService struct {
	*runtime
}

// NewReportService 创建 ReportService 实例
func NewReportService(rt *runtime) ReportService {
	return &reportService{runtime: rt}
}

var bookingSheetHeader = []string{
	"预约编号", "资源", "预约人", "日期", "开始", "结束", "时长(分钟)", "用途", "人数", "状态", "取消原因",
}

// ExportBookings 按筛选条件导出预约明细，附带汇总 Sheet
func (s *reportService) ExportBookings(ctx context.Context, req *dto.BookingListRequest) (*bytes.Buffer, string, error) {
	filter, err := bookingFilterOf(req)
	if err != nil {
		return nil, "", err
	}
	list, _, err := s.repo.Booking.List(ctx, filter, 0, maxExportRows)
	if err != nil {
		s.logger.Error("查询导出数据失败", zap.Error(err))
		return nil, "", err
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoBookings
	}
	rows := toBookingResponses(list)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约明细"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range bookingSheetHeader {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(bookingSheetHeader)-1), 1), headerStyle)
	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "C", 20)
	f.SetColWidth(sheetName, "H", "H", 30)
	f.SetColWidth(sheetName, "K", "K", 40)

	for i, b := range rows {
		row := i + 2
		attendees := ""
		if b.AttendeesCount != nil {
			attendees = fmt.Sprint(*b.AttendeesCount)
		}
		reason := ""
		if b.CancellationReason != nil {
			reason = *b.CancellationReason
		}
		values := []any{
			b.ID, b.ResourceName, b.UserName, b.BookingDate, b.StartTime, b.EndTime,
			b.Duration, b.Purpose, attendees, b.Status, reason,
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
	}

	// 汇总 Sheet
	summary := "汇总"
	f.NewSheet(summary)
	stats := map[string]int{}
	for _, b := range rows {
		stats[b.Status]++
	}
	f.SetCellValue(summary, "A1", "状态")
	f.SetCellValue(summary, "B1", "数量")
	f.SetCellStyle(summary, "A1", "B1", headerStyle)
	for i, status := range []string{"confirmed", "completed", "cancelled", "no_show"} {
		f.SetCellValue(summary, cell("A", i+2), status)
		f.SetCellValue(summary, cell("B", i+2), stats[status])
	}
	f.SetCellValue(summary, "A6", "合计")
	f.SetCellValue(summary, "B6", len(rows))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", s.now().In(s.loc).Format("20060102_150405"))
	return buf, filename, nil
}

func (s *reportService) ExportCalendar(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	list, _, err := s.repo.Booking.List(ctx, repository.BookingFilter{UserID: userID}, 0, maxExportRows)
	if err != nil {
		s.logger.Error("查询日历数据失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("我的预约")

	stamp := s.now().UTC()
	for i := range list {
		b := &list[i]
		iv, err := b.Interval()
		if err != nil {
			s.logger.Warn("跳过时间无效的预约", zap.String("booking_id", b.BookingID), zap.Error(err))
			continue
		}
		start, end := iv.Bounds(s.loc)

		ev := cal.AddEvent(b.BookingID + "@campus-crm")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(resourceNameOf(b))
		ev.SetDescription(b.Purpose)
		if b.Resource != nil && b.Resource.Location != "" {
			ev.SetLocation(b.Resource.Location)
		}
		ev.SetStatus(calendarStatus(b.Status))
	}

	return bytes.NewBufferString(cal.Serialize()), "bookings.ics", nil
}

// ── 辅助函数 ──

const calendarProductID = "-//campus-crm//bookings//ZH"

func calendarStatus(status string) ics.ObjectStatus {
	switch status {
	case model.BookingStatusCancelled, model.BookingStatusNoShow:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusConfirmed
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
