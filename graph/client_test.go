package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// fakeCred counts acquisitions so pagination tests can assert per-page
// token refresh.
type fakeCred struct{ calls int32 }

func (f *fakeCred) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	atomic.AddInt32(&f.calls, 1)
	return azcore.AccessToken{Token: "test-token"}, nil
}

func newTestClient(server *httptest.Server, cred azcore.TokenCredential) *Client {
	if cred == nil {
		cred = &fakeCred{}
	}
	return NewClient(cred, &ClientOptions{
		HTTPClient:   server.Client(),
		GraphBaseURL: server.URL,
		AzureBaseURL: server.URL,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestCallNotInitialized(t *testing.T) {
	client := NewClient(nil, nil)
	res := client.Call(context.Background(), &Request{Path: "/users"})
	if !res.Failed() {
		t.Fatalf("expected error result")
	}
	if !strings.Contains(res.Error, "not initialized") {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Data != nil {
		t.Fatalf("expected nil data, got %v", res.Data)
	}
}

func TestGraphSinglePageWithNextLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1.0/users" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		writeJSON(w, map[string]any{
			"@odata.context":  "ctx",
			"@odata.nextLink": "https://graph.microsoft.com/v1.0/users?$skiptoken=abc",
			"value":           []any{map[string]any{"id": "u1"}, map[string]any{"id": "u2"}, map[string]any{"id": "u3"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/users"})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	payload, ok := res.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object payload, got %T", res.Data)
	}
	if got := len(payload["value"].([]any)); got != 3 {
		t.Fatalf("expected 3 users, got %d", got)
	}
	if !HasMorePages(res.Data, BackendGraph) {
		t.Fatalf("expected more pages to be reported")
	}
}

func TestGraphFetchAllFollowsNextLink(t *testing.T) {
	var baseURL string
	var pages int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := atomic.AddInt32(&pages, 1)
		switch page {
		case 1:
			writeJSON(w, map[string]any{
				"@odata.context":  "ctx",
				"value":           []any{"a", "b"},
				"@odata.nextLink": baseURL + "/v1.0/users?page=2",
			})
		default:
			writeJSON(w, map[string]any{"value": []any{"c"}})
		}
	}))
	defer server.Close()
	baseURL = server.URL

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/users", FetchAll: true})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	payload := res.Data.(map[string]any)
	value := payload["value"].([]any)
	if len(value) != 3 || value[0] != "a" || value[1] != "b" || value[2] != "c" {
		t.Fatalf("unexpected aggregate: %v", value)
	}
	if payload["@odata.context"] != "ctx" {
		t.Fatalf("expected first page context to be preserved")
	}
	if HasMorePages(res.Data, BackendGraph) {
		t.Fatalf("aggregate should carry no cursor")
	}
}

func TestGraphConsistencyLevelHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("ConsistencyLevel"); got != "eventual" {
			t.Errorf("expected ConsistencyLevel header, got %q", got)
		}
		writeJSON(w, map[string]any{"value": []any{}})
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{
		Backend:          BackendGraph,
		Path:             "/users",
		QueryParams:      map[string]string{"$count": "true"},
		ConsistencyLevel: "eventual",
	})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
}

func TestGraphVersionSelection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/beta/") {
			t.Errorf("expected beta path, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]any{"value": []any{}})
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/users", GraphAPIVersion: "beta"})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
}

func TestHasMorePagesPerBackend(t *testing.T) {
	cases := []struct {
		name    string
		payload any
		backend Backend
		want    bool
	}{
		{"graph cursor", map[string]any{"@odata.nextLink": "next"}, BackendGraph, true},
		{"graph wrong key", map[string]any{"nextLink": "next"}, BackendGraph, false},
		{"azure cursor", map[string]any{"nextLink": "next"}, BackendAzure, true},
		{"azure wrong key", map[string]any{"@odata.nextLink": "next"}, BackendAzure, false},
		{"empty cursor", map[string]any{"@odata.nextLink": ""}, BackendGraph, false},
		{"non object", []any{"a"}, BackendGraph, false},
	}
	for _, tc := range cases {
		if got := HasMorePages(tc.payload, tc.backend); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAzureRequiresAPIVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendAzure, Path: "/resources"})
	if !res.Failed() || !strings.Contains(res.Error, "apiVersion") {
		t.Fatalf("expected apiVersion error, got %+v", res)
	}
}

func TestAzureFetchAllAggregation(t *testing.T) {
	var baseURL string
	cred := &fakeCred{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api-version"); r.URL.Query().Get("page") != "2" && got != "2021-04-01" {
			t.Errorf("expected api-version on first page, got %q", got)
		}
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, map[string]any{"value": []any{"c"}})
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/subscriptions/sub-1/") {
			t.Errorf("expected subscription segment, got %s", r.URL.Path)
		}
		writeJSON(w, map[string]any{
			"value":    []any{"a", "b"},
			"nextLink": baseURL + "/subscriptions/sub-1/resources?page=2",
		})
	}))
	defer server.Close()
	baseURL = server.URL

	client := newTestClient(server, cred)
	res := client.Call(context.Background(), &Request{
		Backend:        BackendAzure,
		Path:           "/resources",
		SubscriptionID: "sub-1",
		APIVersion:     "2021-04-01",
		FetchAll:       true,
	})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	payload := res.Data.(map[string]any)
	all := payload["allValues"].([]any)
	if len(all) != 3 || all[0] != "a" || all[1] != "b" || all[2] != "c" {
		t.Fatalf("unexpected aggregate: %v", all)
	}
	if got := atomic.LoadInt32(&cred.calls); got != 2 {
		t.Fatalf("expected a token acquisition per page, got %d", got)
	}
}

func TestAzureFetchAllAbortsOnFailedPage(t *testing.T) {
	var baseURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "denied")
			return
		}
		writeJSON(w, map[string]any{
			"value":    []any{"a"},
			"nextLink": baseURL + "/resources?page=2",
		})
	}))
	defer server.Close()
	baseURL = server.URL

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{
		Backend:    BackendAzure,
		Path:       "/resources",
		APIVersion: "2021-04-01",
		FetchAll:   true,
	})
	if !res.Failed() {
		t.Fatalf("expected aggregation to fail")
	}
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Error, "page=2") || !strings.Contains(res.Error, "403") {
		t.Fatalf("error should name the failing URL and status: %s", res.Error)
	}
	if res.Data != nil {
		t.Fatalf("no partial aggregate expected, got %v", res.Data)
	}
}

func TestAzureSingleObjectWrappedAsAggregate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "/subscriptions/sub-1", "displayName": "prod"})
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{
		Backend:    BackendAzure,
		Path:       "/subscriptions/sub-1",
		APIVersion: "2021-04-01",
		FetchAll:   true,
	})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	all := res.Data.(map[string]any)["allValues"].([]any)
	if len(all) != 1 {
		t.Fatalf("expected one wrapped item, got %d", len(all))
	}
	if all[0].(map[string]any)["displayName"] != "prod" {
		t.Fatalf("unexpected wrapped payload: %v", all[0])
	}
}

func TestAzureEmptyBodyNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected an empty object body: %v", err)
		}
		if len(body) != 0 {
			t.Errorf("expected {}, got %v", body)
		}
		writeJSON(w, map[string]any{"status": "accepted"})
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{
		Backend:    BackendAzure,
		Path:       "/providers/Microsoft.Web/register",
		Method:     "POST",
		APIVersion: "2021-04-01",
	})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
}

func TestDeleteNoContentSynthesizesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/subscriptions/sub-id", Method: "DELETE"})
	if res.Failed() {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	payload := res.Data.(map[string]any)
	if payload["success"] != true {
		t.Fatalf("expected synthetic success payload, got %v", payload)
	}
}

func TestMalformedJSONDegradesToRawText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway</html>")
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/me"})
	if res.Failed() {
		t.Fatalf("expected degraded payload, got error: %s", res.Error)
	}
	payload := res.Data.(map[string]any)
	if payload["rawResponse"] != "<html>gateway</html>" {
		t.Fatalf("unexpected raw wrapper: %v", payload)
	}
}

func TestHTTPErrorSurfacesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":"InvalidAuthenticationToken"}}`)
	}))
	defer server.Close()

	client := newTestClient(server, nil)
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/me"})
	if !res.Failed() {
		t.Fatalf("expected error result")
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	if !strings.Contains(res.Error, "InvalidAuthenticationToken") {
		t.Fatalf("error should carry the raw body: %s", res.Error)
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(&fakeCred{}, &ClientOptions{GraphBaseURL: server.URL})
	res := client.Call(context.Background(), &Request{Backend: BackendGraph, Path: "/me"})
	if !res.Failed() {
		t.Fatalf("expected transport failure")
	}
	if !strings.Contains(res.Error, "failed") {
		t.Fatalf("unexpected error: %s", res.Error)
	}
}
