package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"pgbridge/internal/apply"
	"pgbridge/internal/backup"
	"pgbridge/internal/merge"
	"pgbridge/internal/remote"
)

// --- Test helpers ---

// fakeService is a scriptable planService.
type fakeService struct {
	healthErr  error
	planErr    error
	execErr    error
	execution  *remote.Execution
	gotPlanReq remote.PlanRequest
	gotExecReq remote.ExecuteRequest
}

func (f *fakeService) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeService) CreatePlan(ctx context.Context, req remote.PlanRequest) (*remote.Plan, error) {
	f.gotPlanReq = req
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &remote.Plan{PlanID: "plan-1", Status: "ready"}, nil
}

func (f *fakeService) ExecutePlan(ctx context.Context, req remote.ExecuteRequest) (*remote.Execution, error) {
	f.gotExecReq = req
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.execution, nil
}

func newEngine() *apply.Engine {
	return apply.New(merge.New(), backup.NewManager(".mcp-backups"), true)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func singleFileExecution(path, content string) *remote.Execution {
	return &remote.Execution{
		ExecutionID: "exec-1",
		Status:      "completed",
		Summary:     "generated 1 file",
		GeneratedFiles: []apply.Category{{
			Name: "entities",
			Files: []apply.FileChange{{
				Path:    path,
				Action:  apply.ActionCreate,
				Content: content,
			}},
		}},
		PostExecutionSteps: []string{"run mvn compile"},
	}
}

// --- GenerateTool ---

func TestGenerateTool_MissingArguments(t *testing.T) {
	tool := NewGenerateTool(&fakeService{}, newEngine(), nil)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"no description", map[string]any{"schema": "CREATE TABLE t();"}},
		{"no schema", map[string]any{"description": "users"}},
		{"blank description", map[string]any{"description": "  ", "schema": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Handle(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("Handle returned hard error: %v", err)
			}
			if !isErrorResult(result) {
				t.Error("expected tool error result")
			}
		})
	}
}

func TestGenerateTool_AppliesGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	svc := &fakeService{execution: singleFileExecution("src/main/java/com/example/User.java", "class User {}")}
	tool := NewGenerateTool(svc, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "user management",
		"schema":      "CREATE TABLE users();",
		"projectPath": root,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	data, err := os.ReadFile(filepath.Join(root, "src/main/java/com/example/User.java"))
	if err != nil {
		t.Fatalf("generated file not written: %v", err)
	}
	if string(data) != "class User {}" {
		t.Errorf("content = %q", data)
	}

	text := getResultText(result)
	if !strings.Contains(text, "Applied") || !strings.Contains(text, "1 file(s)") {
		t.Errorf("response missing apply summary:\n%s", text)
	}
	if !strings.Contains(text, "run mvn compile") {
		t.Errorf("response missing post-execution steps:\n%s", text)
	}

	if svc.gotPlanReq.ProjectInfo.Path != root {
		t.Errorf("plan request path = %s, want resolved root", svc.gotPlanReq.ProjectInfo.Path)
	}
	if svc.gotExecReq.PlanID != "plan-1" {
		t.Errorf("execute request planId = %s", svc.gotExecReq.PlanID)
	}
}

func TestGenerateTool_PreviewDoesNotWrite(t *testing.T) {
	root := t.TempDir()
	svc := &fakeService{execution: singleFileExecution("User.java", "class User {}")}
	tool := NewGenerateTool(svc, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description":    "users",
		"schema":         "CREATE TABLE users();",
		"projectPath":    root,
		"applyToProject": false,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	if _, err := os.Stat(filepath.Join(root, "User.java")); !os.IsNotExist(err) {
		t.Error("preview mode must not write files")
	}
	if !strings.Contains(getResultText(result), "not applied") {
		t.Errorf("response should say files were not applied:\n%s", getResultText(result))
	}
}

func TestGenerateTool_BackendUnreachable(t *testing.T) {
	svc := &fakeService{healthErr: fmt.Errorf("cannot reach generation service at http://x: dial tcp: connection refused")}
	tool := NewGenerateTool(svc, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "users",
		"schema":      "CREATE TABLE users();",
		"projectPath": t.TempDir(),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error when backend is unreachable")
	}
	text := getResultText(result)
	if !strings.Contains(text, "cannot reach generation service") {
		t.Errorf("error should carry the connectivity message:\n%s", text)
	}
	if !strings.Contains(text, "MCP_SERVER_URL") {
		t.Errorf("connectivity errors should hint at configuration:\n%s", text)
	}
}

func TestGenerateTool_BackendRejection(t *testing.T) {
	svc := &fakeService{
		execErr:   &remote.ServiceError{StatusCode: 422, Message: "plan expired"},
		execution: singleFileExecution("x", "y"),
	}
	tool := NewGenerateTool(svc, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "users",
		"schema":      "CREATE TABLE users();",
		"projectPath": t.TempDir(),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error on backend rejection")
	}
	text := getResultText(result)
	if !strings.Contains(text, "plan expired") {
		t.Errorf("error should carry the backend message:\n%s", text)
	}
	if strings.Contains(text, "MCP_SERVER_URL") {
		t.Errorf("rejection must not read as a connectivity problem:\n%s", text)
	}
}

func TestGenerateTool_InvalidProjectPath(t *testing.T) {
	tool := NewGenerateTool(&fakeService{}, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "users",
		"schema":      "CREATE TABLE users();",
		"projectPath": filepath.Join(t.TempDir(), "missing"),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for invalid project path")
	}
	if !strings.Contains(getResultText(result), "invalid project path") {
		t.Errorf("text = %s", getResultText(result))
	}
}

func TestGenerateTool_MergeStrategyPreference(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "application.properties")
	if err := os.WriteFile(target, []byte("old=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	exec := &remote.Execution{
		ExecutionID: "exec-1",
		Status:      "completed",
		GeneratedFiles: []apply.Category{{
			Name: "configuration",
			Files: []apply.FileChange{{
				Path:    "application.properties",
				Action:  apply.ActionModify,
				Content: "new=2\n",
			}},
		}},
	}
	tool := NewGenerateTool(&fakeService{execution: exec}, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "users",
		"schema":      "CREATE TABLE users();",
		"projectPath": root,
		"preferences": map[string]any{"mergeStrategy": "replace"},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	data, _ := os.ReadFile(target)
	if string(data) != "new=2\n" {
		t.Errorf("replace strategy not honored, content = %q", data)
	}
}

func TestGenerateTool_RemoveProjectNamePreference(t *testing.T) {
	root := t.TempDir()
	exec := singleFileExecution("src/main/java/com/example/test_service/entity/User.java", "class User {}")
	tool := NewGenerateTool(&fakeService{execution: exec}, newEngine(), nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"description": "users",
		"schema":      "CREATE TABLE users();",
		"projectPath": root,
		"preferences": map[string]any{"removeProjectNameFromPath": false},
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	uncorrected := filepath.Join(root, "src/main/java/com/example/test_service/entity/User.java")
	if _, err := os.Stat(uncorrected); err != nil {
		t.Error("path correction should be disabled by preference")
	}
}

func TestParsePreferences_Defaults(t *testing.T) {
	p := parsePreferences(callRequest(map[string]any{}))
	if !p.RemoveProjectName {
		t.Error("RemoveProjectName should default to true")
	}
	if p.MergeStrategy != "" {
		t.Errorf("MergeStrategy = %q, want empty (engine default)", p.MergeStrategy)
	}
}

func TestParsePreferences_AllKeys(t *testing.T) {
	p := parsePreferences(callRequest(map[string]any{
		"preferences": map[string]any{
			"useLombok":                 true,
			"includeValidation":         true,
			"namingStrategy":            "camelCase",
			"mergeStrategy":             "append",
			"removeProjectNameFromPath": false,
		},
	}))

	if !p.UseLombok || !p.IncludeValidation {
		t.Errorf("bool preferences not parsed: %+v", p)
	}
	if p.NamingStrategy != "camelCase" || p.MergeStrategy != "append" {
		t.Errorf("string preferences not parsed: %+v", p)
	}
	if p.RemoveProjectName {
		t.Error("RemoveProjectName should be false")
	}
}

// --- StatusTool ---

func TestStatusTool_EmptyProject(t *testing.T) {
	tool := NewStatusTool(nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"projectPath": t.TempDir(),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("unexpected tool error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "**Configured:** ❌") {
		t.Errorf("empty project should not be configured:\n%s", text)
	}
	if !strings.Contains(text, "generate_postgresql_integration") {
		t.Errorf("unconfigured status should point at the generate tool:\n%s", text)
	}
}

func TestStatusTool_ConfiguredProject(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project>postgresql</project>"), 0o644); err != nil {
		t.Fatal(err)
	}
	resources := filepath.Join(root, "src", "main", "resources")
	if err := os.MkdirAll(resources, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(resources, "application.properties"), []byte("spring.datasource.url=x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tool := NewStatusTool(nil)
	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"projectPath": root}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, "**Configured:** ✅") {
		t.Errorf("project should be configured:\n%s", text)
	}
	if !strings.Contains(text, "✅ PostgreSQL driver dependency") {
		t.Errorf("dependency line wrong:\n%s", text)
	}
}

func TestStatusTool_InvalidPath(t *testing.T) {
	tool := NewStatusTool(nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"projectPath": filepath.Join(t.TempDir(), "missing"),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected tool error for invalid path")
	}
}

// --- serviceFailure ---

func TestServiceFailure_DistinguishesRejectionFromConnectivity(t *testing.T) {
	rejection := serviceFailure("plan creation", &remote.ServiceError{StatusCode: 400, Message: "bad schema"})
	if strings.Contains(rejection, "MCP_SERVER_URL") {
		t.Errorf("rejection should not hint at connectivity: %s", rejection)
	}

	connectivity := serviceFailure("plan creation", errors.New("cannot reach generation service at http://x: dial tcp"))
	if !strings.Contains(connectivity, "MCP_SERVER_URL") {
		t.Errorf("connectivity failure should hint at configuration: %s", connectivity)
	}
}
