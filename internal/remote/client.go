// Package remote is the REST client for the code-generation service.
// The conversation is two-phase: create a plan from a project
// description, then execute the plan against a schema to receive the
// generated files.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pgbridge/internal/apply"
)

// Client talks to one generation service instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the given base URL. The timeout bounds
// each individual request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ServiceError is an application-level rejection from the generation
// service: it was reachable, but refused or failed the request. This is
// distinct from connectivity failures, which surface as wrapped
// transport errors from the "cannot reach" path.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service rejected the request (HTTP %d): %s", e.StatusCode, e.Message)
}

// Preferences mirrors the preference object the service understands.
// mergeStrategy and removeProjectNameFromPath also drive local behavior
// but are forwarded so the service can shape its output accordingly.
type Preferences struct {
	UseLombok                 bool   `json:"useLombok,omitempty"`
	IncludeValidation         bool   `json:"includeValidation,omitempty"`
	NamingStrategy            string `json:"namingStrategy,omitempty"`
	MergeStrategy             string `json:"mergeStrategy,omitempty"`
	RemoveProjectNameFromPath *bool  `json:"removeProjectNameFromPath,omitempty"`
}

// ProjectInfo describes the target project in a plan request.
type ProjectInfo struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// PlanRequest is the body of POST /plan/create.
type PlanRequest struct {
	ProjectInfo ProjectInfo `json:"projectInfo"`
	Preferences Preferences `json:"preferences"`
}

// Plan is the service's integration proposal.
type Plan struct {
	PlanID          string          `json:"planId"`
	Status          string          `json:"status"`
	ExpiresIn       int             `json:"expiresIn"`
	ProjectAnalysis json.RawMessage `json:"projectAnalysis,omitempty"`
}

// ExecuteRequest is the body of POST /plan/execute.
type ExecuteRequest struct {
	PlanID string `json:"planId"`
	Schema string `json:"schema"`
}

// Validation carries the service's own assessment of its output.
type Validation struct {
	Status string   `json:"status,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// Execution is the result of executing a plan. GeneratedFiles is the
// descriptor collection the apply engine consumes.
type Execution struct {
	ExecutionID        string           `json:"executionId"`
	Status             string           `json:"status"`
	Summary            string           `json:"summary,omitempty"`
	GeneratedFiles     []apply.Category `json:"generatedFiles"`
	Validation         *Validation      `json:"validation,omitempty"`
	PostExecutionSteps []string         `json:"postExecutionSteps,omitempty"`
}

// Health pings GET /health. A nil error means the service is reachable
// and reports itself healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &ServiceError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return nil
}

// CreatePlan submits the project description and preferences, returning
// the service's plan.
func (c *Client) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	var plan Plan
	if err := c.postJSON(ctx, "/plan/create", req, &plan); err != nil {
		return nil, err
	}
	if plan.PlanID == "" {
		return nil, &ServiceError{StatusCode: http.StatusOK, Message: "response carried no planId"}
	}
	return &plan, nil
}

// ExecutePlan executes a previously created plan against a schema.
func (c *Client) ExecutePlan(ctx context.Context, req ExecuteRequest) (*Execution, error) {
	var exec Execution
	if err := c.postJSON(ctx, "/plan/execute", req, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.unreachable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// unreachable wraps transport failures with a message that lets callers
// tell "can't reach backend" apart from "backend rejected the request".
func (c *Client) unreachable(err error) error {
	return fmt.Errorf("cannot reach generation service at %s: %w", c.baseURL, err)
}

// readErrorMessage pulls a human-readable message out of an error
// response body, accepting {"error": ...} or {"message": ...} payloads
// and falling back to the raw body.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail provided"
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}
