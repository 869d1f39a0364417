package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// Backend selects which REST surface a Request targets.
type Backend string

const (
	// BackendGraph targets the Microsoft Graph API.
	BackendGraph Backend = "graph"
	// BackendAzure targets the Azure Resource Management API.
	BackendAzure Backend = "azure"
)

const (
	defaultGraphBaseURL = "https://graph.microsoft.com"
	defaultAzureBaseURL = "https://management.azure.com"

	// GraphScope and AzureScope are the resource scopes tokens are acquired for.
	GraphScope = "https://graph.microsoft.com/.default"
	AzureScope = "https://management.azure.com/.default"

	graphNextLinkKey = "@odata.nextLink"
	azureNextLinkKey = "nextLink"
)

// Request describes one logical API call before transport translation.
type Request struct {
	Backend     Backend           `json:"backend,omitempty"`
	Path        string            `json:"path"`
	Method      string            `json:"method,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	// Body may be a structured value, a pre-serialized JSON string, or a list.
	Body any `json:"body,omitempty"`
	// APIVersion is required for the azure backend and always injected as the
	// api-version query parameter.
	APIVersion     string `json:"apiVersion,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	// GraphAPIVersion is v1.0 (default) or beta; graph backend only.
	GraphAPIVersion string `json:"graphApiVersion,omitempty"`
	FetchAll        bool   `json:"fetchAll,omitempty"`
	// ConsistencyLevel is sent as a header on graph calls when set; required
	// by Graph for advanced query operators.
	ConsistencyLevel string `json:"consistencyLevel,omitempty"`
}

// Result is the uniform outcome of a Call. Exactly one of Data/Error is
// populated; callers treat a non-empty Error as the sole failure signal.
type Result struct {
	Data       any    `json:"data"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Failed reports whether the call produced an error result.
func (r Result) Failed() bool { return r.Error != "" }

func errorResult(statusCode int, format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...), StatusCode: statusCode}
}

// ClientOptions overrides transport defaults, mainly for tests.
type ClientOptions struct {
	HTTPClient   *http.Client
	GraphBaseURL string
	AzureBaseURL string
}

// Client executes logical requests against both backends, normalizing every
// failure into a Result. A nil credential is legal; calls then return a
// not-initialized error result instead of raising.
type Client struct {
	cred         azcore.TokenCredential
	httpClient   *http.Client
	graphBaseURL string
	azureBaseURL string
}

// NewClient builds a dispatch client over a token provider; opts may be nil.
func NewClient(cred azcore.TokenCredential, opts *ClientOptions) *Client {
	c := &Client{
		cred:         cred,
		httpClient:   http.DefaultClient,
		graphBaseURL: defaultGraphBaseURL,
		azureBaseURL: defaultAzureBaseURL,
	}
	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.GraphBaseURL != "" {
			c.graphBaseURL = strings.TrimRight(opts.GraphBaseURL, "/")
		}
		if opts.AzureBaseURL != "" {
			c.azureBaseURL = strings.TrimRight(opts.AzureBaseURL, "/")
		}
	}
	return c
}

// Call executes one logical request end to end, including pagination when
// FetchAll is set on a GET. It never returns an error; failures come back in
// Result.Error.
func (c *Client) Call(ctx context.Context, req *Request) Result {
	if c == nil || c.cred == nil {
		return errorResult(0, "API client is not initialized: authenticate first")
	}
	if req == nil || req.Path == "" {
		return errorResult(0, "request path is required")
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	switch req.Backend {
	case BackendAzure:
		return c.callAzure(ctx, req, method)
	case BackendGraph, "":
		return c.callGraph(ctx, req, method)
	default:
		return errorResult(0, "unknown backend %q", req.Backend)
	}
}

// HasMorePages reports whether a previously returned payload carries the
// backend-appropriate continuation cursor.
func HasMorePages(payload any, backend Backend) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	key := graphNextLinkKey
	if backend == BackendAzure {
		key = azureNextLinkKey
	}
	link, _ := m[key].(string)
	return link != ""
}

func (c *Client) callGraph(ctx context.Context, req *Request, method string) Result {
	version := req.GraphAPIVersion
	if version == "" {
		version = "v1.0"
	}
	url := c.graphBaseURL + "/" + version + ensureLeadingSlash(req.Path)
	if query := encodeQuery(req.QueryParams, ""); query != "" {
		url += "?" + query
	}
	var headers map[string]string
	if req.ConsistencyLevel != "" {
		headers = map[string]string{"ConsistencyLevel": req.ConsistencyLevel}
	}
	scopes := []string{GraphScope}

	if method == http.MethodGet && req.FetchAll {
		return c.aggregateGraph(ctx, url, headers, scopes)
	}

	payload, status, errRes := c.roundTrip(ctx, method, url, req.Body, headers, scopes, false)
	if errRes != nil {
		return *errRes
	}
	return Result{Data: payload, StatusCode: status}
}

// aggregateGraph follows @odata.nextLink until exhausted and returns all items
// under the original envelope shape.
func (c *Client) aggregateGraph(ctx context.Context, url string, headers map[string]string, scopes []string) Result {
	var items []any
	var odataContext any
	pageURL := url
	for page := 0; pageURL != ""; page++ {
		payload, status, errRes := c.roundTrip(ctx, http.MethodGet, pageURL, nil, headers, scopes, false)
		if errRes != nil {
			return *errRes
		}
		m, ok := payload.(map[string]any)
		if !ok {
			if page == 0 {
				return Result{Data: payload, StatusCode: status}
			}
			return errorResult(status, "graph page %s returned a non-object payload", pageURL)
		}
		if page == 0 {
			odataContext = m["@odata.context"]
			if _, hasValue := m["value"]; !hasValue {
				// Not a collection; nothing to aggregate.
				return Result{Data: payload, StatusCode: status}
			}
		}
		if value, ok := m["value"].([]any); ok {
			items = append(items, value...)
		}
		pageURL, _ = m[graphNextLinkKey].(string)
		if pageURL != "" {
			debugf("following %s (page %d, %d items so far)", graphNextLinkKey, page+1, len(items))
		}
	}
	envelope := map[string]any{"value": items}
	if odataContext != nil {
		envelope["@odata.context"] = odataContext
	}
	return Result{Data: envelope, StatusCode: http.StatusOK}
}

func (c *Client) callAzure(ctx context.Context, req *Request, method string) Result {
	if req.APIVersion == "" {
		return errorResult(0, "apiVersion is required for azure backend requests")
	}
	url := c.azureBaseURL
	if req.SubscriptionID != "" {
		url += "/subscriptions/" + neturl.PathEscape(req.SubscriptionID)
	}
	url += ensureLeadingSlash(req.Path)
	url += "?" + encodeQuery(req.QueryParams, req.APIVersion)
	scopes := []string{AzureScope}

	if method == http.MethodGet && req.FetchAll {
		return c.aggregateAzure(ctx, url, scopes)
	}

	body := req.Body
	if body == nil && method != http.MethodGet && method != http.MethodDelete {
		// ARM rejects POST/PUT/PATCH without a body; normalize to {}.
		body = map[string]any{}
	}
	payload, status, errRes := c.roundTrip(ctx, method, url, body, nil, scopes, false)
	if errRes != nil {
		return *errRes
	}
	return Result{Data: payload, StatusCode: status}
}

// aggregateAzure loops over nextLink cursors, reacquiring a token per page
// because management tokens may expire mid-aggregation on long result sets.
// Any non-2xx page aborts the whole aggregation.
func (c *Client) aggregateAzure(ctx context.Context, url string, scopes []string) Result {
	var items []any
	pageURL := url
	for page := 0; pageURL != ""; page++ {
		payload, _, errRes := c.roundTrip(ctx, http.MethodGet, pageURL, nil, nil, scopes, true)
		if errRes != nil {
			return *errRes
		}
		m, _ := payload.(map[string]any)
		nextURL := ""
		if m != nil {
			nextURL, _ = m[azureNextLinkKey].(string)
		}
		if value, ok := valueArray(m); ok {
			items = append(items, value...)
		} else if page == 0 && nextURL == "" {
			// Single non-collection payload; wrap it as a one-element aggregate.
			items = append(items, payload)
		}
		pageURL = nextURL
		if pageURL != "" {
			debugf("following %s (page %d, %d items so far)", azureNextLinkKey, page+1, len(items))
		}
	}
	return Result{Data: map[string]any{"allValues": items}, StatusCode: http.StatusOK}
}

func valueArray(m map[string]any) ([]any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m["value"].([]any)
	return value, ok
}

// roundTrip performs one HTTP exchange: token acquisition, request, response
// normalization. It returns either the decoded payload or an error Result.
// When failOnURL is set, the failing page's URL is named in the error, which
// the azure aggregation relies on.
func (c *Client) roundTrip(ctx context.Context, method, url string, body any, headers map[string]string, scopes []string, failOnURL bool) (any, int, *Result) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		res := errorResult(0, "token acquisition failed: %v", err)
		return nil, 0, &res
	}
	reader, err := encodeBody(body)
	if err != nil {
		res := errorResult(0, "encode request body: %v", err)
		return nil, 0, &res
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		res := errorResult(0, "build request for %s: %v", url, err)
		return nil, 0, &res
	}
	httpReq.Header.Set("Authorization", "Bearer "+token.Token)
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		res := errorResult(0, "request to %s failed: %v", url, err)
		return nil, 0, &res
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res := errorResult(resp.StatusCode, "read response from %s: %v", url, err)
		return nil, resp.StatusCode, &res
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var res Result
		if failOnURL {
			res = errorResult(resp.StatusCode, "request to %s failed with status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(raw)))
		} else {
			res = errorResult(resp.StatusCode, "API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return nil, resp.StatusCode, &res
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		// DELETE and friends may return no content; substitute a synthetic
		// success payload so callers never special-case absent bodies.
		return map[string]any{"success": true}, resp.StatusCode, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Degrade to a raw-text wrapper rather than failing the call.
		return map[string]any{"rawResponse": string(raw)}, resp.StatusCode, nil
	}
	return payload, resp.StatusCode, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return strings.NewReader(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return bytes.NewReader(v), nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}

func encodeQuery(params map[string]string, apiVersion string) string {
	q := neturl.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if apiVersion != "" {
		q.Set("api-version", apiVersion)
	}
	return q.Encode()
}

func ensureLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

func debugEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("MSGRAPH_MCP_DEBUG")))
	return v != "" && v != "0" && v != "false"
}

func debugf(format string, args ...any) {
	if debugEnabled() {
		log.Printf("[msgraph] "+format, args...)
	}
}
