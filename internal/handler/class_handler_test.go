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

type classServiceMock struct {
	assigned models.AssignSubjectsRequest
	classID  string
}

func (m *classServiceMock) List(ctx context.Context, actor service.Actor) ([]models.ClassListItem, error) {
	return []models.ClassListItem{}, nil
}

func (m *classServiceMock) Get(ctx context.Context, actor service.Actor, id string) (*models.ClassDetail, error) {
	return &models.ClassDetail{}, nil
}

func (m *classServiceMock) Create(ctx context.Context, actor service.Actor, req models.ClassRequest) (*models.Class, error) {
	return &models.Class{Name: req.Name}, nil
}

func (m *classServiceMock) Update(ctx context.Context, actor service.Actor, id string, req models.ClassRequest) (*models.Class, error) {
	return &models.Class{ID: id, Name: req.Name}, nil
}

func (m *classServiceMock) AssignSubjects(ctx context.Context, actor service.Actor, id string, req models.AssignSubjectsRequest) ([]models.ClassSubjectDetail, error) {
	m.classID, m.assigned = id, req
	return []models.ClassSubjectDetail{}, nil
}

func (m *classServiceMock) Subjects(ctx context.Context, actor service.Actor) ([]models.Subject, error) {
	return []models.Subject{}, nil
}

func (m *classServiceMock) CreateSubject(ctx context.Context, actor service.Actor, req models.CreateSubjectRequest) (*models.Subject, error) {
	return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
}

func TestClassHandlerCreate(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{})
	c, w := newGinContext(http.MethodPost, "/classes", []byte(`{"name":"JHS 1A","level":"JHS"}`))
	withCaller(c, models.RoleAdmin)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "JHS 1A")
}

func TestClassHandlerAssignSubjects(t *testing.T) {
	svc := &classServiceMock{}
	handler := NewClassHandler(svc)
	c, w := newGinContext(http.MethodPost, "/classes/class-1/subjects", []byte(`{"assignments":[{"subject_id":"sub-1","teacher_id":"staff-1"}]}`))
	c.Params = gin.Params{{Key: "id", Value: "class-1"}}
	withCaller(c, models.RoleAdmin)
	handler.AssignSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "class-1", svc.classID)
	require.Len(t, svc.assigned.Assignments, 1)
	assert.Equal(t, "sub-1", svc.assigned.Assignments[0].SubjectID)
}

func TestClassHandlerCreateSubjectConflict(t *testing.T) {
	handler := NewClassHandler(&classServiceMock{})
	c, w := newGinContext(http.MethodPost, "/subjects", []byte(`{"name":"Mathematics","code":"MATH"}`))
	withCaller(c, models.RoleAdmin)
	handler.CreateSubject(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
