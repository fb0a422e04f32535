package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
	"github.com/sunilprojects/smart-campus-resource-management/internal/notification"
	"github.com/sunilprojects/smart-campus-resource-management/internal/repository"
	pkgerrors "github.com/sunilprojects/smart-campus-resource-management/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
			continue
		}
		result = append(result, *u)
	}
	slices.SortFunc(result, func(a, b model.User) int { return strings.Compare(a.UserID, b.UserID) })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for _, u := range m.users {
		out[u.Role]++
	}
	return out, nil
}

// ── Mock CategoryRepository ──

type mockCategoryRepo struct {
	categories map[string]*model.ResourceCategory
	resources  *mockResourceRepo
}

func newMockCategoryRepo(resources *mockResourceRepo) *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[string]*model.ResourceCategory), resources: resources}
}

func (m *mockCategoryRepo) Create(_ context.Context, c *model.ResourceCategory) error {
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicateKey
		}
	}
	if c.CategoryID == "" {
		c.CategoryID = "cat-" + c.Name
	}
	m.categories[c.CategoryID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*model.ResourceCategory, error) {
	if c, ok := m.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.ResourceCategory, error) {
	var out []model.ResourceCategory
	for _, c := range m.categories {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b model.ResourceCategory) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *model.ResourceCategory) error {
	cp := *c
	m.categories[c.CategoryID] = &cp
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) CountResources(_ context.Context, id string) (int64, error) {
	var n int64
	for _, r := range m.resources.resources {
		if r.CategoryID != nil && *r.CategoryID == id {
			n++
		}
	}
	return n, nil
}

// ── Mock ResourceRepository ──

type mockResourceRepo struct {
	mu         sync.Mutex
	resources  map[string]*model.Resource
	categories *mockCategoryRepo
	seq        int

	lastFields   map[string]any
	beforeUpdate func() // 在写入前插入其他并发写
}

func newMockResourceRepo() *mockResourceRepo {
	return &mockResourceRepo{resources: make(map[string]*model.Resource)}
}

func (m *mockResourceRepo) withCategory(r *model.Resource) *model.Resource {
	cp := *r
	if m.categories != nil && cp.CategoryID != nil {
		if c, ok := m.categories.categories[*cp.CategoryID]; ok {
			cc := *c
			cp.Category = &cc
		}
	}
	return &cp
}

func (m *mockResourceRepo) Create(_ context.Context, r *model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ResourceID == "" {
		m.seq++
		r.ResourceID = fmt.Sprintf("res-%d", m.seq)
	}
	cp := *r
	m.resources[r.ResourceID] = &cp
	return nil
}

func (m *mockResourceRepo) GetByID(_ context.Context, id string) (*model.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		return m.withCategory(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResourceRepo) List(_ context.Context, filter repository.ResourceFilter, offset, limit int) ([]model.Resource, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Resource
	for _, r := range m.resources {
		if filter.CategoryID != "" && (r.CategoryID == nil || *r.CategoryID != filter.CategoryID) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		out = append(out, *m.withCategory(r))
	}
	slices.SortFunc(out, func(a, b model.Resource) int { return strings.Compare(a.Name, b.Name) })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockResourceRepo) ListAll(ctx context.Context) ([]model.Resource, error) {
	out, _, err := m.List(ctx, repository.ResourceFilter{}, 0, -1)
	return out, err
}

func (m *mockResourceRepo) Update(_ context.Context, id string, fields map[string]any) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFields = fields
	r, ok := m.resources[id]
	if !ok {
		return nil
	}
	for col, v := range fields {
		switch col {
		case "category_id":
			c := v.(string)
			r.CategoryID = &c
		case "name":
			r.Name = v.(string)
		case "description":
			r.Description = v.(string)
		case "capacity":
			r.Capacity = v.(int)
		case "location":
			r.Location = v.(string)
		case "amenities":
			r.Amenities = v.(string)
		case "image_url":
			r.ImageURL = v.(string)
		case "min_booking_duration":
			r.MinBookingDuration = v.(int)
		case "max_booking_duration":
			r.MaxBookingDuration = v.(int)
		case "advance_booking_days":
			r.AdvanceBookingDays = v.(int)
		case "updated_by":
			by := v.(string)
			r.UpdatedBy = &by
		}
	}
	return nil
}

func (m *mockResourceRepo) UpdateStatus(_ context.Context, id, status string, updatedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		r.Status = status
		r.UpdatedBy = updatedBy
	}
	return nil
}

func (m *mockResourceRepo) SetMaintenance(_ context.Context, id string, start, end time.Time, reason string, updatedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		r.Status = model.ResourceStatusUnderMaintenance
		r.MaintenanceStart = &start
		r.MaintenanceEnd = &end
		r.MaintenanceReason = reason
		r.UpdatedBy = updatedBy
	}
	return nil
}

func (m *mockResourceRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for _, r := range m.resources {
		out[r.Status]++
	}
	return out, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	mu        sync.Mutex
	bookings  map[string]*model.Booking
	users     *mockUserRepo
	resources *mockResourceRepo
	seq       int
	locks     int
}

func newMockBookingRepo(users *mockUserRepo, resources *mockResourceRepo) *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking), users: users, resources: resources}
}

// hydrate 附加关联的用户与资源
func (m *mockBookingRepo) hydrate(b *model.Booking) model.Booking {
	cp := *b
	if u, err := m.users.GetByID(context.Background(), b.UserID); err == nil {
		cp.User = u
	}
	if r, err := m.resources.GetByID(context.Background(), b.ResourceID); err == nil {
		cp.Resource = r
	}
	return cp
}

func (m *mockBookingRepo) sorted(keep func(*model.Booking) bool) []model.Booking {
	var out []model.Booking
	for _, b := range m.bookings {
		if keep(b) {
			out = append(out, m.hydrate(b))
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int {
		if c := a.BookingDate.Compare(b.BookingDate); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return out
}

func (m *mockBookingRepo) LockResource(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks++
	return nil
}

func (m *mockBookingRepo) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.BookingID == "" {
		m.seq++
		b.BookingID = fmt.Sprintf("booking-%d", m.seq)
	}
	if b.Version == 0 {
		b.Version = 1
	}
	cp := *b
	cp.User, cp.Resource = nil, nil
	m.bookings[b.BookingID] = &cp
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		h := m.hydrate(b)
		return &h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) UpdateStatus(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.BookingID]
	if !ok || stored.Version != b.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = b.Status
	stored.CancellationReason = b.CancellationReason
	stored.CancelledAt = b.CancelledAt
	stored.CancelledBy = b.CancelledBy
	stored.Version++
	b.Version = stored.Version
	return nil
}

func (m *mockBookingRepo) ListConfirmedByResourceAndDate(_ context.Context, resourceID string, date time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := date.Format(time.DateOnly)
	return m.sorted(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusConfirmed && b.ResourceID == resourceID && b.BookingDate.Format(time.DateOnly) == day
	}), nil
}

func (m *mockBookingRepo) ListConfirmedOverlapping(ctx context.Context, resourceID string, date time.Time, start, end string) ([]model.Booking, error) {
	all, _ := m.ListConfirmedByResourceAndDate(ctx, resourceID, date)
	var out []model.Booking
	for _, b := range all {
		if b.StartTime < end && b.EndTime > start {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListConfirmedByResource(_ context.Context, resourceID string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusConfirmed && b.ResourceID == resourceID
	}), nil
}

func (m *mockBookingRepo) CountConfirmedByUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.Status == model.BookingStatusConfirmed && b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingRepo) CountConfirmedByResource(_ context.Context, resourceID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.Status == model.BookingStatusConfirmed && b.ResourceID == resourceID {
			n++
		}
	}
	return n, nil
}

func matchBookingFilter(b *model.Booking, f repository.BookingFilter) bool {
	if f.UserID != "" && b.UserID != f.UserID {
		return false
	}
	if f.ResourceID != "" && b.ResourceID != f.ResourceID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	day := b.BookingDate.Format(time.DateOnly)
	if f.DateFrom != nil && day < f.DateFrom.Format(time.DateOnly) {
		return false
	}
	if f.DateTo != nil && day > f.DateTo.Format(time.DateOnly) {
		return false
	}
	return true
}

func (m *mockBookingRepo) List(_ context.Context, filter repository.BookingFilter, offset, limit int) ([]model.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(b *model.Booking) bool { return matchBookingFilter(b, filter) })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockBookingRepo) ListUpcoming(_ context.Context, userID string, from time.Time, limit int) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := from.Format(time.DateOnly)
	out := m.sorted(func(b *model.Booking) bool {
		return b.Status == model.BookingStatusConfirmed &&
			(userID == "" || b.UserID == userID) &&
			b.BookingDate.Format(time.DateOnly) >= day
	})
	return page(out, 0, limit), nil
}

func (m *mockBookingRepo) ListForStats(_ context.Context, filter repository.BookingFilter) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(b *model.Booking) bool { return matchBookingFilter(b, filter) }), nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	reviews map[string]*model.Review
	seq     int
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string]*model.Review)}
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.Review) error {
	for _, existing := range m.reviews {
		if existing.BookingID == r.BookingID {
			return repository.ErrDuplicateKey
		}
	}
	m.seq++
	r.ReviewID = fmt.Sprintf("review-%d", m.seq)
	cp := *r
	m.reviews[r.ReviewID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	if r, ok := m.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) ExistsForBooking(_ context.Context, bookingID string) (bool, error) {
	for _, r := range m.reviews {
		if r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepo) ListByResource(_ context.Context, resourceID string, offset, limit int) ([]model.Review, int64, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ResourceID == resourceID {
			out = append(out, *r)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockReviewRepo) ListByUser(_ context.Context, userID string) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) Update(_ context.Context, r *model.Review) error {
	cp := *r
	m.reviews[r.ReviewID] = &cp
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id string) error {
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) RatingsByResource(_ context.Context, resourceID string) ([]int, error) {
	var out []int
	for _, r := range m.reviews {
		if r.ResourceID == resourceID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

// ── Mock EmailLogRepository ──

type mockEmailLogRepo struct {
	logs []model.EmailLog
}

func (m *mockEmailLogRepo) Create(_ context.Context, log *model.EmailLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockEmailLogRepo) CountSince(_ context.Context, since time.Time, status string) (int64, error) {
	var n int64
	for _, l := range m.logs {
		if l.Status == status && !l.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *mockEmailLogRepo) List(_ context.Context, offset, limit int) ([]model.EmailLog, int64, error) {
	return page(m.logs, offset, limit), int64(len(m.logs)), nil
}

// ── Mock RoleLimitRepository ──

type mockRoleLimitRepo struct {
	rows map[string]model.RoleLimit
}

func newMockRoleLimitRepo() *mockRoleLimitRepo {
	return &mockRoleLimitRepo{rows: make(map[string]model.RoleLimit)}
}

func (m *mockRoleLimitRepo) List(_ context.Context) ([]model.RoleLimit, error) {
	var out []model.RoleLimit
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRoleLimitRepo) Upsert(_ context.Context, r *model.RoleLimit) error {
	m.rows[r.Role] = *r
	return nil
}

// ── Mock Notifier / TokenStore / HealthProbe ──

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) kinds() []notification.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.Kind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type memoryTokenStore struct {
	revoked map[string]time.Duration
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{revoked: make(map[string]time.Duration)}
}

func (s *memoryTokenStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	s.revoked[jti] = ttl
	return nil
}

func (s *memoryTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := s.revoked[jti]
	return ok, nil
}

type stubProbe struct{ err error }

func (p stubProbe) Ping(context.Context) error { return p.err }

// ── 公共测试夹具 ──

type testRepos struct {
	repo       *repository.Repository
	users      *mockUserRepo
	categories *mockCategoryRepo
	resources  *mockResourceRepo
	bookings   *mockBookingRepo
	reviews    *mockReviewRepo
	emails     *mockEmailLogRepo
	limits     *mockRoleLimitRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	resources := newMockResourceRepo()
	categories := newMockCategoryRepo(resources)
	resources.categories = categories
	bookings := newMockBookingRepo(users, resources)
	reviews := newMockReviewRepo()
	emails := &mockEmailLogRepo{}
	limits := newMockRoleLimitRepo()
	return &testRepos{
		repo: &repository.Repository{
			User:      users,
			Category:  categories,
			Resource:  resources,
			Booking:   bookings,
			Review:    reviews,
			EmailLog:  emails,
			RoleLimit: limits,
		},
		users:      users,
		categories: categories,
		resources:  resources,
		bookings:   bookings,
		reviews:    reviews,
		emails:     emails,
		limits:     limits,
	}
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
