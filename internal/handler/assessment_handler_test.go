package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

type assessmentServiceMock struct {
	saved    models.SaveScoresRequest
	entryErr error
}

func (m *assessmentServiceMock) ClassSubjects(ctx context.Context, actor service.Actor) ([]models.ClassSubjectDetail, error) {
	return []models.ClassSubjectDetail{}, nil
}

func (m *assessmentServiceMock) ClassSubjectsForClass(ctx context.Context, actor service.Actor, classID string) ([]models.ClassSubjectDetail, error) {
	return []models.ClassSubjectDetail{}, nil
}

func (m *assessmentServiceMock) EntrySheet(ctx context.Context, actor service.Actor, classSubjectID string) (*models.EntrySheet, error) {
	if m.entryErr != nil {
		return nil, m.entryErr
	}
	return &models.EntrySheet{Level: grading.LevelJHS}, nil
}

func (m *assessmentServiceMock) SaveScores(ctx context.Context, actor service.Actor, req models.SaveScoresRequest) (*models.SaveScoresResult, error) {
	m.saved = req
	return &models.SaveScoresResult{SavedCount: len(req.Scores)}, nil
}

func (m *assessmentServiceMock) CalculateGrade(req models.CalculateGradeRequest) grading.Result {
	return req.Components().Clamped().Classify(grading.ParseLevel(req.Level))
}

func (m *assessmentServiceMock) Scale(level string) models.GradingScale {
	parsed := grading.ParseLevel(level)
	return models.GradingScale{Level: parsed, Bands: grading.Bands(parsed)}
}

func (m *assessmentServiceMock) ClassMatrix(ctx context.Context, actor service.Actor, classID string) (*models.ClassMatrix, error) {
	return &models.ClassMatrix{}, nil
}

func (m *assessmentServiceMock) StudentSummary(ctx context.Context, actor service.Actor, studentID string) (*models.StudentTermSummary, error) {
	return &models.StudentTermSummary{}, nil
}

func TestAssessmentHandlerCalculateGrade(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{})

	c, w := newGinContext(http.MethodPost, "/assessments/calculate-grade", []byte(`{"classwork":"25","homework":8,"project":9,"exam":45,"level":"shs"}`))
	withCaller(c, models.RoleTeacher)
	handler.CalculateGrade(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res grading.Result
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, 87.0, res.Total)
	require.NotNil(t, res.Grade)
	assert.Equal(t, "A1", *res.Grade)
}

func TestAssessmentHandlerCalculateGradeClampsAndReportsGap(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{})

	c, w := newGinContext(http.MethodPost, "/assessments/calculate-grade", []byte(`{"classwork":29.5,"homework":10,"project":10,"exam":80}`))
	handler.CalculateGrade(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := string(decodeEnvelope(t, w).Data)
	assert.JSONEq(t, `{"total":99.5,"grade":"1","remark":"Highest"}`, body)

	c, w = newGinContext(http.MethodPost, "/assessments/calculate-grade", []byte(`{"classwork":29.5,"homework":0,"project":0,"exam":50}`))
	handler.CalculateGrade(c)
	assert.JSONEq(t, `{"total":79.5,"grade":null,"remark":null}`, string(decodeEnvelope(t, w).Data))
}

func TestAssessmentHandlerScaleDefaultsToPrimary(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{})
	c, w := newGinContext(http.MethodGet, "/assessments/scale?level=nursery", nil)
	handler.Scale(c)

	require.Equal(t, http.StatusOK, w.Code)
	var scale models.GradingScale
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &scale))
	assert.Equal(t, grading.LevelPrimary, scale.Level)
	assert.Len(t, scale.Bands, 9)
}

func TestAssessmentHandlerSaveScores(t *testing.T) {
	svc := &assessmentServiceMock{}
	handler := NewAssessmentHandler(svc)
	payload := `{"class_subject_id":"cs-1","scores":[{"student_id":"stu-1","classwork":20,"exam":40},{"student_id":"stu-2","exam":"35"}]}`

	c, w := newGinContext(http.MethodPost, "/assessments/save", []byte(payload))
	withCaller(c, models.RoleTeacher)
	handler.SaveScores(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cs-1", svc.saved.ClassSubjectID)
	assert.Len(t, svc.saved.Scores, 2)
}

func TestAssessmentHandlerEntrySheetForbidden(t *testing.T) {
	handler := NewAssessmentHandler(&assessmentServiceMock{entryErr: appErrors.Clone(appErrors.ErrForbidden, "not your class subject")})
	c, w := newGinContext(http.MethodGet, "/assessments/entry/cs-9", nil)
	c.Params = gin.Params{{Key: "classSubjectId", Value: "cs-9"}}
	withCaller(c, models.RoleTeacher)
	handler.EntrySheet(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
