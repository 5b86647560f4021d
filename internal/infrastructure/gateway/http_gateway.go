package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	apperrors "agentdesk/pkg/errors"
	"agentdesk/pkg/result"
	"agentdesk/pkg/tracing"
	"agentdesk/pkg/utils"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 8 << 20

// Endpoint names used in logs, spans and metrics.
const (
	EndpointUsers       = "list_users"
	EndpointDocuments   = "list_documents"
	EndpointPermissions = "fetch_permissions"
	EndpointAgentQuery  = "submit_query"
	EndpointRoot        = "root"
)

// HTTPGateway talks JSON over HTTP to the agent API.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway for baseURL. A zero timeout leaves calls
// bounded only by their context.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var (
	_ ports.Gateway = (*HTTPGateway)(nil)
	_ ports.Pinger  = (*HTTPGateway)(nil)
)

type usersResponse struct {
	Users []domain.User `json:"users"`
}

type documentsResponse struct {
	Documents []domain.Document `json:"documents"`
}

type permissionsResponse struct {
	Role        string                   `json:"role"`
	Permissions []domain.PermissionEntry `json:"permissions"`
}

// errorResponse is the body the agent API sends with a non-2xx status.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func (g *HTTPGateway) ListUsers(ctx context.Context) result.Result[[]domain.User] {
	return result.Map(get[usersResponse](ctx, g, "/users"), func(body usersResponse) []domain.User {
		return nonNil(body.Users)
	})
}

func (g *HTTPGateway) ListDocuments(ctx context.Context) result.Result[[]domain.Document] {
	return result.Map(get[documentsResponse](ctx, g, "/documents"), func(body documentsResponse) []domain.Document {
		return nonNil(body.Documents)
	})
}

func (g *HTTPGateway) FetchPermissions(ctx context.Context, role domain.Role) result.Result[[]domain.PermissionEntry] {
	path := "/permissions/" + url.PathEscape(string(role))
	return result.Map(get[permissionsResponse](ctx, g, path), func(body permissionsResponse) []domain.PermissionEntry {
		return nonNil(body.Permissions)
	})
}

func (g *HTTPGateway) SubmitQuery(ctx context.Context, query domain.AgentQuery) result.Result[domain.AgentResponse] {
	var body domain.AgentResponse
	if err := g.do(ctx, http.MethodPost, "/agent/query", query, &body); err != nil {
		return result.Err[domain.AgentResponse](err)
	}
	if body.Status == "" {
		return result.Err[domain.AgentResponse](
			apperrors.NewMalformedResponseError("/agent/query", fmt.Errorf("response has no status")))
	}
	return result.Ok(body)
}

// Ping checks that the agent API answers on its root path.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	var body map[string]interface{}
	if err := g.do(ctx, http.MethodGet, "/", nil, &body); err != nil {
		return err
	}
	return nil
}

// get decodes the JSON body of a GET on path into a T.
func get[T any](ctx context.Context, g *HTTPGateway, path string) result.Result[T] {
	var body T
	if err := g.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return result.Err[T](err)
	}
	return result.Ok(body)
}

// nonNil turns an absent JSON list into an empty one.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// do performs one request and decodes the JSON response into out. It only
// ever returns *AppError.
func (g *HTTPGateway) do(ctx context.Context, method, path string, in, out interface{}) *apperrors.AppError {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeInternal, "failed to encode request", http.StatusInternalServerError)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return apperrors.NewTransportError(path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewTransportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewBadGatewayError(path, resp.StatusCode, errorDetail(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewMalformedResponseError(path, err)
	}
	return nil
}

// maxDetailLen bounds upstream error text carried into notifications.
const maxDetailLen = 512

// errorDetail extracts FastAPI-style {"detail": ...} text, if any.
func errorDetail(data []byte) string {
	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err != nil {
		s = string(body.Detail)
	}
	return utils.TruncateString(s, maxDetailLen)
}
