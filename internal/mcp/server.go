// Package mcp exposes the orchestration engine as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/paradiselabs/mco-server/internal/orchestrator"
)

// getArgs extracts arguments from request as map[string]any
func getArgs(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}
	return make(map[string]any)
}

// Server wraps the MCP server around the orchestration engine.
type Server struct {
	mcpServer *server.MCPServer
	engine    *orchestrator.Engine

	mu        sync.Mutex
	lastRunID string // last started run, used when orchestration_id is omitted
}

// NewServer creates an MCP server exposing the orchestration tools.
func NewServer(engine *orchestrator.Engine, name, version string) *Server {
	s := &Server{engine: engine}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerPrompts(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools adds all orchestration tools
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	startTool := mcp.NewTool("start_orchestration",
		mcp.WithDescription("Start a new orchestration from an MCO configuration directory and return its orchestration_id"),
		mcp.WithString("config_dir",
			mcp.Description("Directory containing mco.core, mco.sc and optional mco.features/mco.styles. Falls back to the server default, then MCO_CONFIG_DIR."),
		),
	)
	mcpServer.AddTool(startTool, s.handleStartOrchestration)

	nextTool := mcp.NewTool("get_next_directive",
		mcp.WithDescription("Get the directive for the current step: instruction, persistent context, any strategically injected context, and guidance"),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration to advance. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(nextTool, s.handleGetNextDirective)

	completeTool := mcp.NewTool("complete_step",
		mcp.WithDescription("Mark the current step as complete with its result. Steps must be completed strictly in order."),
		mcp.WithString("step_id",
			mcp.Required(),
			mcp.Description("ID of the step being completed; must match the current step"),
		),
		mcp.WithString("result",
			mcp.Description("The output produced for this step"),
		),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration the step belongs to. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(completeTool, s.handleCompleteStep)

	statusTool := mcp.NewTool("get_workflow_status",
		mcp.WithDescription("Get lifecycle state, progress percentage, and the completed/remaining step lists for an orchestration"),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration to inspect. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(statusTool, s.handleGetWorkflowStatus)

	evalTool := mcp.NewTool("evaluate_against_criteria",
		mcp.WithDescription("Evaluate a result against the workflow's success criteria"),
		mcp.WithString("result",
			mcp.Required(),
			mcp.Description("The result text to evaluate"),
		),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration whose criteria to use. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(evalTool, s.handleEvaluateAgainstCriteria)

	setVarTool := mcp.NewTool("set_workflow_variable",
		mcp.WithDescription("Set a workflow variable; {name} placeholders in step instructions are substituted from these"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Variable name"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Variable value"),
		),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration to write to. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(setVarTool, s.handleSetWorkflowVariable)

	getVarTool := mcp.NewTool("get_workflow_variable",
		mcp.WithDescription("Read a workflow variable"),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Variable name"),
		),
		mcp.WithString("orchestration_id",
			mcp.Description("Orchestration to read from. Defaults to the most recently started one."),
		),
	)
	mcpServer.AddTool(getVarTool, s.handleGetWorkflowVariable)
}

// registerPrompts adds MCP prompts
func (s *Server) registerPrompts(mcpServer *server.MCPServer) {
	instrPrompt := mcp.NewPrompt("mco/instructions",
		mcp.WithPromptDescription("Instructions for driving an MCO orchestration"),
	)
	mcpServer.AddPrompt(instrPrompt, s.handleGetInstructions)
}

// resolveRunID picks the orchestration id from the arguments, falling
// back to the last started run.
func (s *Server) resolveRunID(args map[string]any) string {
	if id, ok := args["orchestration_id"].(string); ok && id != "" {
		return id
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunID
}

func (s *Server) setLastRunID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunID = id
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(op string, v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: failed to encode result: %v", op, err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// opError wraps an operation failure with the failing operation's name.
func opError(op string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
}

func (s *Server) handleStartOrchestration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	configDir, _ := args["config_dir"].(string)

	res, err := s.engine.Start(configDir)
	if err != nil {
		log.Printf("start_orchestration failed: %v", err)
		return opError("start_orchestration", err), nil
	}

	s.setLastRunID(res.OrchestrationID)
	return jsonResult("start_orchestration", res)
}

func (s *Server) handleGetNextDirective(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("get_next_directive: no orchestration_id given and none started yet"), nil
	}

	directive, err := s.engine.NextDirective(runID)
	if err != nil {
		return opError("get_next_directive", err), nil
	}
	return jsonResult("get_next_directive", directive)
}

func (s *Server) handleCompleteStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)

	stepID, ok := args["step_id"].(string)
	if !ok || stepID == "" {
		return mcp.NewToolResultError("step_id parameter is required"), nil
	}
	result := stringArg(args, "result")

	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("complete_step: no orchestration_id given and none started yet"), nil
	}

	res, err := s.engine.CompleteStep(runID, stepID, result)
	if err != nil {
		return opError("complete_step", err), nil
	}
	return jsonResult("complete_step", res)
}

func (s *Server) handleGetWorkflowStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("get_workflow_status: no orchestration_id given and none started yet"), nil
	}

	status, err := s.engine.WorkflowStatus(runID)
	if err != nil {
		return opError("get_workflow_status", err), nil
	}
	return jsonResult("get_workflow_status", status)
}

func (s *Server) handleEvaluateAgainstCriteria(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)

	result, ok := args["result"].(string)
	if !ok {
		return mcp.NewToolResultError("result parameter is required"), nil
	}

	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("evaluate_against_criteria: no orchestration_id given and none started yet"), nil
	}

	evaluation, err := s.engine.EvaluateAgainstCriteria(runID, result)
	if err != nil {
		return opError("evaluate_against_criteria", err), nil
	}
	return jsonResult("evaluate_against_criteria", evaluation)
}

func (s *Server) handleSetWorkflowVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)

	key, ok := args["key"].(string)
	if !ok || key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}
	value, ok := args["value"]
	if !ok {
		return mcp.NewToolResultError("value parameter is required"), nil
	}

	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("set_workflow_variable: no orchestration_id given and none started yet"), nil
	}

	if err := s.engine.SetVariable(runID, key, value); err != nil {
		return opError("set_workflow_variable", err), nil
	}
	return jsonResult("set_workflow_variable", map[string]any{"status": "success", "key": key})
}

func (s *Server) handleGetWorkflowVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)

	key, ok := args["key"].(string)
	if !ok || key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}

	runID := s.resolveRunID(args)
	if runID == "" {
		return mcp.NewToolResultError("get_workflow_variable: no orchestration_id given and none started yet"), nil
	}

	value, found, err := s.engine.GetVariable(runID, key)
	if err != nil {
		return opError("get_workflow_variable", err), nil
	}
	return jsonResult("get_workflow_variable", map[string]any{"key": key, "value": value, "found": found})
}

// handleGetInstructions returns the orchestration protocol for the agent
func (s *Server) handleGetInstructions(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	instructions := `### MCO ORCHESTRATION PROTOCOL
You are being orchestrated through a structured workflow with progressive revelation.

### RULES OF OPERATION:
1. Call 'start_orchestration' once to begin; remember the orchestration_id.
2. Loop: call 'get_next_directive', execute the instruction it returns, then call 'complete_step' with the step_id and your result.
3. Steps are strictly sequential. Never skip ahead or complete a step twice.
4. The persistent_context in every directive is always in force. When a directive carries injected_context, fold it into your work from that point on.
5. Stop when get_next_directive returns type "complete".`

	return &mcp.GetPromptResult{
		Description: "MCO Orchestration Instructions",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: instructions,
				},
			},
		},
	}, nil
}

// stringArg renders an argument as a string, accepting non-string JSON
// values as their encoded form.
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Run starts the MCP server in stdio mode
func (s *Server) Run() error {
	log.Println("Starting MCO MCP server in stdio mode...")
	return server.ServeStdio(s.mcpServer)
}
