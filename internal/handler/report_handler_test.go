package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type reportServiceMock struct {
	publishErr  error
	cardStudent string
	cardTerm    string
	exported    string
}

func (m *reportServiceMock) Summaries(ctx context.Context, actor service.Actor) ([]models.ClassSummary, error) {
	return []models.ClassSummary{}, nil
}

func (m *reportServiceMock) Generate(ctx context.Context, actor service.Actor, classID string) (*models.GenerateReportsResult, error) {
	return &models.GenerateReportsResult{}, nil
}

func (m *reportServiceMock) Publish(ctx context.Context, actor service.Actor, classID string) (*models.PublishReportsResult, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	return &models.PublishReportsResult{PublishedCount: 4}, nil
}

func (m *reportServiceMock) ReportCard(ctx context.Context, actor service.Actor, studentID, termID string) (*models.ReportCard, error) {
	m.cardStudent, m.cardTerm = studentID, termID
	return &models.ReportCard{StudentName: "Ama Mensah"}, nil
}

func (m *reportServiceMock) ReportCardPDF(ctx context.Context, actor service.Actor, studentID, termID string) (*service.Download, error) {
	return &service.Download{Filename: "report_card.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func (m *reportServiceMock) Broadsheet(ctx context.Context, actor service.Actor, classID string) (*models.Broadsheet, error) {
	return &models.Broadsheet{}, nil
}

func (m *reportServiceMock) BroadsheetExport(ctx context.Context, actor service.Actor, classID, format string) (*service.Download, error) {
	m.exported = format
	return &service.Download{Filename: "broadsheet.csv", ContentType: "text/csv", Data: []byte("Position,Student\n")}, nil
}

func TestReportHandlerPublish(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports/terminal/class-1/publish", nil)
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}}
	withCaller(c, models.RoleTeacher)
	handler.Publish(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"published_count":4`)
}

func TestReportHandlerPublishWithoutReports(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{publishErr: appErrors.Clone(appErrors.ErrNotFound, "no reports to publish")})
	c, w := newGinContext(http.MethodPost, "/reports/terminal/class-1/publish", nil)
	withCaller(c, models.RoleAdmin)
	handler.Publish(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerReportCardParams(t *testing.T) {
	svc := &reportServiceMock{}
	handler := NewReportHandler(svc)
	c, w := newGinContext(http.MethodGet, "/reports/terminal/stu-1/term-1", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}, {Key: "termId", Value: "term-1"}}
	withCaller(c, models.RoleParent)
	handler.ReportCard(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", svc.cardStudent)
	assert.Equal(t, "term-1", svc.cardTerm)
}

func TestReportHandlerBroadsheetFormats(t *testing.T) {
	svc := &reportServiceMock{}
	handler := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/reports/broadsheet/class-1", nil)
	withCaller(c, models.RoleTeacher)
	handler.Broadsheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.exported)

	c, w = newGinContext(http.MethodGet, "/reports/broadsheet/class-1?format=csv", nil)
	withCaller(c, models.RoleTeacher)
	handler.Broadsheet(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.exported)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "broadsheet.csv")
	assert.Equal(t, "Position,Student\n", w.Body.String())
}
