// Package mcp exposes the symptom intake operations as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/logging"
	"github.com/symptom-intake-server/internal/service"
)

// Tool names
const (
	ToolProcessSymptoms      = "process_symptoms"
	ToolGenerateWellnessPlan = "generate_wellness_plan"
	ToolAssessSymptoms       = "assess_symptoms"
	ToolPipelineStatus       = "pipeline_status"
)

// ProcessSymptomsParams defines parameters for the process_symptoms tool
type ProcessSymptomsParams struct {
	Text string `json:"text" jsonschema:"free-text description of the symptoms"`
}

// GenerateWellnessPlanParams defines parameters for the generate_wellness_plan tool
type GenerateWellnessPlanParams struct {
	Analysis *domain.AnalysisResult `json:"analysis" jsonschema:"analysis returned by process_symptoms"`
	Context  *domain.UserContext    `json:"context,omitempty" jsonschema:"optional age, gender and existing conditions"`
}

// AssessSymptomsParams defines parameters for the assess_symptoms tool
type AssessSymptomsParams struct {
	Text    string              `json:"text" jsonschema:"free-text description of the symptoms"`
	Context *domain.UserContext `json:"context,omitempty" jsonschema:"optional age, gender and existing conditions"`
}

// PipelineStatusParams is empty; pipeline_status takes no arguments.
type PipelineStatusParams struct{}

// Service is the assessment surface the tools call into.
type Service interface {
	ProcessSymptoms(ctx context.Context, text string) (*domain.AnalysisResult, error)
	GenerateWellnessPlan(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) *domain.WellnessPlan
	Assess(ctx context.Context, text string, uctx *domain.UserContext) (*service.Assessment, error)
	Capabilities(ctx context.Context) service.Status
}

// Server represents the symptom intake MCP server
type Server struct {
	cfg       domain.MCPConfig
	svc       Service
	mcpServer *mcp.Server
	logger    *logrus.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg domain.MCPConfig, svc Service, logger *logrus.Logger) *Server {
	name := cfg.ServerName
	if name == "" {
		name = "symptom-intake-server"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "v0.1.0"
	}

	s := &Server{
		cfg:       cfg,
		svc:       svc,
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithField("server", s.cfg.ServerName).Info("Starting MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolProcessSymptoms,
		Description: "Extract medical entities, intent, probable conditions and confidence from a symptom description.",
	}, s.handleProcessSymptoms)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGenerateWellnessPlan,
		Description: "Generate a six-section wellness plan from a process_symptoms analysis.",
	}, s.handleGenerateWellnessPlan)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolAssessSymptoms,
		Description: "Analyze a symptom description and generate a wellness plan in one call.",
	}, s.handleAssessSymptoms)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolPipelineStatus,
		Description: "Report which optional model backends the pipeline is using.",
	}, s.handlePipelineStatus)

	s.logger.WithField("tools", 4).Debug("Registered MCP tools")
}

func (s *Server) handleProcessSymptoms(ctx context.Context, _ *mcp.CallToolRequest, in ProcessSymptomsParams) (*mcp.CallToolResult, any, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	result, err := s.svc.ProcessSymptoms(ctx, in.Text)
	if err != nil {
		return s.errorResult(ctx, ToolProcessSymptoms, err), nil, nil
	}
	return s.jsonResult(ctx, ToolProcessSymptoms, result)
}

func (s *Server) handleGenerateWellnessPlan(ctx context.Context, _ *mcp.CallToolRequest, in GenerateWellnessPlanParams) (*mcp.CallToolResult, any, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	if in.Analysis == nil {
		return s.errorResult(ctx, ToolGenerateWellnessPlan, domain.NewValidationError("analysis", "is required", nil)), nil, nil
	}
	if err := in.Context.Validate(); err != nil {
		return s.errorResult(ctx, ToolGenerateWellnessPlan, err), nil, nil
	}
	return s.jsonResult(ctx, ToolGenerateWellnessPlan, s.svc.GenerateWellnessPlan(ctx, in.Analysis, in.Context))
}

func (s *Server) handleAssessSymptoms(ctx context.Context, _ *mcp.CallToolRequest, in AssessSymptomsParams) (*mcp.CallToolResult, any, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	if err := in.Context.Validate(); err != nil {
		return s.errorResult(ctx, ToolAssessSymptoms, err), nil, nil
	}
	assessment, err := s.svc.Assess(ctx, in.Text, in.Context)
	if err != nil {
		return s.errorResult(ctx, ToolAssessSymptoms, err), nil, nil
	}
	return s.jsonResult(ctx, ToolAssessSymptoms, assessment)
}

func (s *Server) handlePipelineStatus(ctx context.Context, _ *mcp.CallToolRequest, _ PipelineStatusParams) (*mcp.CallToolResult, any, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()
	return s.jsonResult(ctx, ToolPipelineStatus, s.svc.Capabilities(ctx))
}

// begin tags ctx with a correlation id and bounds it by mcp.request_timeout.
func (s *Server) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if logging.CorrelationID(ctx) == "" {
		ctx = logging.WithCorrelationID(ctx, logging.NewCorrelationID())
	}
	if s.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) jsonResult(ctx context.Context, tool string, v interface{}) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
	}
	logging.FromContext(ctx, s.logger).WithField("tool", tool).Debug("MCP tool call completed")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult reports a tool failure to the client without failing the call.
func (s *Server) errorResult(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	logging.FromContext(ctx, s.logger).WithError(err).WithField("tool", tool).Warn("MCP tool call rejected")

	code := domain.ErrCodeInternalServer
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		code = domain.ErrCodeEmptyInput
	case errors.Is(err, context.DeadlineExceeded):
		code = domain.ErrCodeTimeout
	case errors.As(err, &verr):
		code = domain.ErrCodeValidation
	}

	serr := domain.NewServiceError(code, err.Error(), "", logging.CorrelationID(ctx))
	data, _ := json.Marshal(serr)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
