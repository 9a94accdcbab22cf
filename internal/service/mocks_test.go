package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/scan"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

type mockComplaintRepo struct{ mock.Mock }

func (m *mockComplaintRepo) Create(ctx context.Context, c *domain.Complaint) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = 42
	}
	return args.Error(0)
}

func (m *mockComplaintRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Complaint, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]domain.Complaint)
	return out, args.Error(1)
}

func (m *mockComplaintRepo) List(ctx context.Context, limit, offset int) ([]domain.Complaint, error) {
	args := m.Called(ctx, limit, offset)
	out, _ := args.Get(0).([]domain.Complaint)
	return out, args.Error(1)
}

type mockReportRepo struct{ mock.Mock }

func (m *mockReportRepo) Create(ctx context.Context, r *domain.ScanReport) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReportRepo) List(ctx context.Context, limit, offset int) ([]domain.ScanReport, error) {
	args := m.Called(ctx, limit, offset)
	out, _ := args.Get(0).([]domain.ScanReport)
	return out, args.Error(1)
}

type mockScanner struct {
	mock.Mock
	disabled bool
}

func (m *mockScanner) Enabled() bool { return !m.disabled }

func (m *mockScanner) Scan(ctx context.Context, content []byte, filename string) (scan.Result, error) {
	args := m.Called(ctx, content, filename)
	return args.Get(0).(scan.Result), args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Save(filename string, content []byte) (string, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Remove(path string) error {
	return m.Called(path).Error(0)
}
