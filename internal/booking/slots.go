package booking

import (
	"iter"
	"slices"
)

// 时段网格：08:00 起每小时一个，共 12 个，最后一个为 19:00
const (
	FirstSlotHour = 8
	SlotCount     = 12
	SlotMinutes   = 60
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
)

// Slot 单个整点时段
type Slot struct {
	Start  Clock
	End    Clock
	Status SlotStatus
}

// Slots 根据当日已确认预约生成时段序列
// 只要某个预约满足 start <= t < end，时刻 t 的时段即为 BOOKED。
// 返回的序列可重复遍历，每次遍历都重新计算。
func Slots(booked []Interval) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		for i := 0; i < SlotCount; i++ {
			t := NewClock(FirstSlotHour+i, 0)
			s := Slot{Start: t, End: t + SlotMinutes, Status: SlotAvailable}
			for _, b := range booked {
				if b.Start <= t && t < b.End {
					s.Status = SlotBooked
					break
				}
			}
			if !yield(s) {
				return
			}
		}
	}
}

// CollectSlots 物化时段序列
func CollectSlots(booked []Interval) []Slot {
	return slices.Collect(Slots(booked))
}
