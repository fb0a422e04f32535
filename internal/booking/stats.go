package booking

import (
	"cmp"
	"slices"
	"time"
)

// Record 统计用的预约快照
type Record struct {
	ResourceID string
	Category   string
	Date       time.Time
	Start      Clock
	Duration   int
	Status     Status
}

// ResourceRef 统计用的资源快照
type ResourceRef struct {
	ID       string
	Name     string
	Category string
}

// Summary 预约状态计数与平均时长
type Summary struct {
	Total           int
	Confirmed       int
	Completed       int
	Cancelled       int
	NoShow          int
	AverageDuration float64
}

// Summarize 按状态计数
func Summarize(records []Record) Summary {
	var s Summary
	var minutes int
	for _, r := range records {
		s.Total++
		minutes += r.Duration
		switch r.Status {
		case StatusConfirmed:
			s.Confirmed++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		case StatusNoShow:
			s.NoShow++
		}
	}
	if s.Total > 0 {
		s.AverageDuration = float64(minutes) / float64(s.Total)
	}
	return s
}

// CountByCategory 各分类预约数
func CountByCategory(records []Record) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[r.Category]++
	}
	return out
}

// HourCount 某整点开始的预约数
type HourCount struct {
	Hour  int
	Count int
}

// PeakHours 按开始小时统计，08..19 每个小时都会出现
func PeakHours(records []Record) []HourCount {
	counts := make(map[int]int)
	for _, r := range records {
		counts[r.Start.Hour()]++
	}
	out := make([]HourCount, 0, SlotCount)
	for h := FirstSlotHour; h < FirstSlotHour+SlotCount; h++ {
		out = append(out, HourCount{Hour: h, Count: counts[h]})
	}
	return out
}

// WeekdayCount 某个星期几的预约数
type WeekdayCount struct {
	Weekday time.Weekday
	Count   int
}

// WeekdayDistribution 周一到周日的分布
func WeekdayDistribution(records []Record) []WeekdayCount {
	var counts [7]int
	for _, r := range records {
		counts[r.Date.Weekday()]++
	}
	out := make([]WeekdayCount, 0, 7)
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		out = append(out, WeekdayCount{Weekday: d, Count: counts[d]})
	}
	return out
}

// DayCount 某日的预约数
type DayCount struct {
	Date  time.Time
	Count int
}

// Trend 截止 today（含）最近 days 天每天的预约数
func Trend(records []Record, today time.Time, days int) []DayCount {
	if days <= 0 {
		return nil
	}
	counts := make(map[time.Time]int)
	for _, r := range records {
		counts[DateOf(r.Date)]++
	}
	end := DateOf(today)
	out := make([]DayCount, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := end.AddDate(0, 0, -i)
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

// Utilization 资源利用率估算：每个已完成预约计 5%，封顶 100%。
// 这只是占位启发式，不代表真实的已预约时长占比。
func Utilization(completed int) float64 {
	return min(float64(completed)*5, 100)
}

// ResourceUsage 资源使用情况
type ResourceUsage struct {
	ResourceID  string
	Name        string
	Completed   int
	Utilization float64
}

func completedByResource(records []Record) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		if r.Status == StatusCompleted {
			out[r.ResourceID]++
		}
	}
	return out
}

// TopResources 按已完成预约数降序取前 n 个资源
func TopResources(resources []ResourceRef, records []Record, n int) []ResourceUsage {
	completed := completedByResource(records)
	out := make([]ResourceUsage, 0, len(resources))
	for _, res := range resources {
		c := completed[res.ID]
		out = append(out, ResourceUsage{ResourceID: res.ID, Name: res.Name, Completed: c, Utilization: Utilization(c)})
	}
	slices.SortStableFunc(out, func(a, b ResourceUsage) int {
		if c := cmp.Compare(b.Completed, a.Completed); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryUtilization 分类下各资源利用率的平均值
func CategoryUtilization(resources []ResourceRef, records []Record) map[string]float64 {
	completed := completedByResource(records)
	sum := make(map[string]float64)
	cnt := make(map[string]int)
	for _, res := range resources {
		sum[res.Category] += Utilization(completed[res.ID])
		cnt[res.Category]++
	}
	out := make(map[string]float64, len(sum))
	for c, s := range sum {
		out[c] = s / float64(cnt[c])
	}
	return out
}

// RatingSummary 评分汇总
type RatingSummary struct {
	Average      float64
	Count        int
	Distribution map[int]int // 1..5 均存在
}

// SummarizeRatings 计算平均分与分布，越界评分被忽略
func SummarizeRatings(ratings []int) RatingSummary {
	s := RatingSummary{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	total := 0
	for _, r := range ratings {
		if r < 1 || r > 5 {
			continue
		}
		s.Distribution[r]++
		s.Count++
		total += r
	}
	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}
	return s
}
