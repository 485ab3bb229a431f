package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/logging"
	"github.com/symptom-intake-server/internal/middleware"
	"github.com/symptom-intake-server/internal/report"
)

// AnalyzeRequest is the body of POST /api/v1/symptoms/analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// PlanRequest is the body of POST /api/v1/wellness-plan.
type PlanRequest struct {
	Analysis *domain.AnalysisResult `json:"analysis"`
	Context  *domain.UserContext    `json:"context,omitempty"`
}

// AssessRequest is the body of POST /api/v1/assessments and of each
// WebSocket message.
type AssessRequest struct {
	Text    string              `json:"text"`
	Context *domain.UserContext `json:"context,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.cfg.MCP.ServerVersion,
	})
}

func (s *Server) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Capabilities(c.Request.Context()))
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body", err.Error())
		return
	}
	if !s.checkText(c, req.Text) {
		return
	}

	result, err := s.svc.ProcessSymptoms(c.Request.Context(), req.Text)
	if err != nil {
		s.failProcessing(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleWellnessPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body", err.Error())
		return
	}
	if req.Analysis == nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "analysis is required", "")
		return
	}
	if !s.checkContext(c, req.Context) {
		return
	}

	c.JSON(http.StatusOK, s.svc.GenerateWellnessPlan(c.Request.Context(), req.Analysis, req.Context))
}

func (s *Server) handleCreateAssessment(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid request body", err.Error())
		return
	}
	if !s.checkText(c, req.Text) || !s.checkContext(c, req.Context) {
		return
	}

	assessment, err := s.svc.Assess(c.Request.Context(), req.Text, req.Context)
	if err != nil {
		s.failProcessing(c, err)
		return
	}
	c.JSON(http.StatusCreated, assessment)
}

func (s *Server) handleListAssessments(c *gin.Context) {
	limit := s.cfg.API.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "limit must be a positive integer", raw)
			return
		}
		limit = n
	}

	records, err := s.svc.RecentAssessments(c.Request.Context(), limit)
	if err != nil {
		logging.FromContext(c.Request.Context(), s.logger).WithError(err).Error("Failed to list assessments")
		s.fail(c, http.StatusInternalServerError, domain.ErrCodeHistory, "failed to list assessments", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assessments": records,
		"count":       len(records),
	})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	record, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleReport(c *gin.Context) {
	record, ok := s.lookup(c)
	if !ok {
		return
	}

	body, err := report.String(record)
	if err != nil {
		logging.FromContext(c.Request.Context(), s.logger).WithError(err).Error("Failed to render report")
		s.fail(c, http.StatusInternalServerError, domain.ErrCodeInternalServer, "failed to render report", "")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(record.CreatedAt)))
	c.Data(http.StatusOK, report.ContentType, []byte(body))
}

func (s *Server) lookup(c *gin.Context) (*history.Record, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid assessment id", c.Param("id"))
		return nil, false
	}

	record, err := s.svc.GetAssessment(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.fail(c, http.StatusNotFound, domain.ErrCodeNotFound, "assessment not found", id.String())
		return nil, false
	case err != nil:
		logging.FromContext(c.Request.Context(), s.logger).WithError(err).Error("Failed to load assessment")
		s.fail(c, http.StatusInternalServerError, domain.ErrCodeHistory, "failed to load assessment", "")
		return nil, false
	}
	return record, true
}

// validateText applies the presentation-layer length gates.
func (s *Server) validateText(text string) *domain.ServiceError {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.NewServiceError(domain.ErrCodeEmptyInput, domain.ErrEmptyInput.Error(), "", "")
	}
	n := utf8.RuneCountInString(trimmed)
	if minLen := s.cfg.API.MinInputLength; n < minLen {
		return domain.NewServiceError(domain.ErrCodeInvalidInput,
			fmt.Sprintf("please provide a more detailed description (at least %d characters)", minLen), "", "")
	}
	if maxLen := s.cfg.API.MaxInputLength; maxLen > 0 && n > maxLen {
		return domain.NewServiceError(domain.ErrCodeInvalidInput,
			fmt.Sprintf("description is too long (at most %d characters)", maxLen), "", "")
	}
	return nil
}

func (s *Server) checkText(c *gin.Context, text string) bool {
	if serr := s.validateText(text); serr != nil {
		serr.RequestID = c.GetString(middleware.CorrelationKey)
		c.JSON(http.StatusBadRequest, serr)
		return false
	}
	return true
}

func (s *Server) checkContext(c *gin.Context, uctx *domain.UserContext) bool {
	if err := uctx.Validate(); err != nil {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeValidation, err.Error(), "")
		return false
	}
	return true
}

func (s *Server) failProcessing(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrEmptyInput) {
		s.fail(c, http.StatusBadRequest, domain.ErrCodeEmptyInput, domain.ErrEmptyInput.Error(), "")
		return
	}
	logging.FromContext(c.Request.Context(), s.logger).WithError(err).Error("Symptom processing failed")
	s.fail(c, http.StatusInternalServerError, domain.ErrCodeInternalServer, "symptom processing failed", "")
}

func (s *Server) fail(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewServiceError(code, message, details, c.GetString(middleware.CorrelationKey)))
}
