package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/ledgerstack/tenant-core/internal/domain"
	"github.com/ledgerstack/tenant-core/internal/repository"
	"github.com/ledgerstack/tenant-core/pkg/logger"
)

type MockViolationRecorder struct {
	mock.Mock
}

func (m *MockViolationRecorder) RecordViolation(ctx context.Context, kind domain.ViolationKind, severity domain.ViolationSeverity, description string, details map[string]interface{}) error {
	return m.Called(ctx, kind, severity, description, details).Error(0)
}

type BaseHandlerTestSuite struct {
	suite.Suite
	recorder *MockViolationRecorder
	handler  *BaseHandler
}

func (s *BaseHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.recorder = new(MockViolationRecorder)
	s.handler = NewBaseHandler(s.recorder, logger.NewLogger("test"))
}

func TestBaseHandler(t *testing.T) {
	suite.Run(t, new(BaseHandlerTestSuite))
}

func (s *BaseHandlerTestSuite) respond(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/audit/logs/r1", nil)
	s.handler.RespondError(c, err)
	return w
}

func (s *BaseHandlerTestSuite) TestCrossTenantWriteAnswers403() {
	s.recorder.On("RecordViolation", mock.Anything,
		domain.ViolationUnauthorizedAccess, domain.SeverityHigh,
		mock.Anything, mock.MatchedBy(func(d map[string]interface{}) bool {
			return d["path"] == "/audit/logs/r1" && d["method"] == http.MethodGet
		})).Return(nil)

	w := s.respond(repository.ErrCrossTenantWrite)

	s.Equal(http.StatusForbidden, w.Code)
	s.Contains(w.Body.String(), "permission denied")
	s.recorder.AssertExpectations(s.T())
}

// a read that missed only because the row is another tenant's answers
// exactly like plain non-existence
func (s *BaseHandlerTestSuite) TestCrossTenantReadAnswers404() {
	s.recorder.On("RecordViolation", mock.Anything,
		domain.ViolationUnauthorizedAccess, domain.SeverityHigh,
		mock.Anything, mock.Anything).Return(nil)

	w := s.respond(repository.ErrCrossTenantRead)

	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "resource not found")
	s.recorder.AssertExpectations(s.T())
}

func (s *BaseHandlerTestSuite) TestNilRecorderStillResponds() {
	s.handler = NewBaseHandler(nil, logger.NewLogger("test"))

	w := s.respond(repository.ErrCrossTenantWrite)

	s.Equal(http.StatusForbidden, w.Code)
}

func (s *BaseHandlerTestSuite) TestRecorderFailureDoesNotChangeResponse() {
	s.recorder.On("RecordViolation", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything).Return(context.DeadlineExceeded)

	w := s.respond(repository.ErrCrossTenantRead)

	s.Equal(http.StatusNotFound, w.Code)
}
