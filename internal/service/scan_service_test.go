package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/scan"
)

func TestScanFileWarningStatus(t *testing.T) {
	scanner := new(mockScanner)
	reports := new(mockReportRepo)
	scanner.On("Scan", mock.Anything, mock.Anything, "a.pdf").Return(scan.Result{
		Digest:  "d",
		Verdict: scan.EvaluateStats(map[string]int{"suspicious": 2, "undetected": 60}),
	}, nil)
	reports.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ScanReport) bool {
		return r.Status == domain.ScanStatusWarning && r.UserID == nil && r.TotalEngines == 62
	})).Return(nil)

	outcome, err := NewScanService(scanner, reports, nil, nil).ScanFile(context.Background(), nil, "a.pdf", []byte("x"))
	require.NoError(t, err)

	assert.Equal(t, domain.ScanStatusWarning, outcome.Status)
	assert.False(t, outcome.Verdict.IsMalicious())
	reports.AssertExpectations(t)
}

func TestScanFileReportFailureDoesNotChangeResult(t *testing.T) {
	scanner := new(mockScanner)
	reports := new(mockReportRepo)
	scanner.On("Scan", mock.Anything, mock.Anything, mock.Anything).Return(scan.Result{
		Digest:  "d",
		Verdict: scan.EvaluateStats(map[string]int{"malicious": 3, "undetected": 60}),
	}, nil)
	reports.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	outcome, err := NewScanService(scanner, reports, nil, nil).ScanFile(context.Background(), nil, "a.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, domain.ScanStatusMalicious, outcome.Status)
}

func TestListReportsDefaultsPage(t *testing.T) {
	reports := new(mockReportRepo)
	reports.On("List", mock.Anything, defaultPageSize, 0).Return([]domain.ScanReport{{ID: 1}}, nil)

	out, err := NewScanService(new(mockScanner), reports, nil, nil).ListReports(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
