package booking

// Role 用户角色
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// Unlimited 表示该项不设上限
const Unlimited = -1

// Limits 单个角色的预约配额
type Limits struct {
	MaxActiveBookings  int
	AdvanceDays        int
	MaxDurationMinutes int
	CancelLeadHours    int
}

// LimitTable 角色到配额的查找表，可由管理员在运行时覆盖
type LimitTable map[Role]Limits

// DefaultLimitTable 内置配额
func DefaultLimitTable() LimitTable {
	return LimitTable{
		RoleStudent: {MaxActiveBookings: 3, AdvanceDays: 7, MaxDurationMinutes: 180, CancelLeadHours: 2},
		RoleFaculty: {MaxActiveBookings: 5, AdvanceDays: 14, MaxDurationMinutes: 360, CancelLeadHours: 1},
		RoleAdmin:   {MaxActiveBookings: Unlimited, AdvanceDays: Unlimited, MaxDurationMinutes: Unlimited, CancelLeadHours: 0},
	}
}

// For 查找角色配额；未知角色按学生处理
func (t LimitTable) For(role Role) Limits {
	if l, ok := t[role]; ok {
		return l
	}
	if l, ok := t[RoleStudent]; ok {
		return l
	}
	return DefaultLimitTable()[RoleStudent]
}

// Merge 用 overrides 覆盖当前表中的同名角色，返回新表
func (t LimitTable) Merge(overrides LimitTable) LimitTable {
	out := make(LimitTable, len(t)+len(overrides))
	for r, l := range t {
		out[r] = l
	}
	for r, l := range overrides {
		out[r] = l
	}
	return out
}
