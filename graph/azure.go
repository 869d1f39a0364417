package graph

import (
	"context"
	"fmt"
)

// resourcesAPIVersion is the Microsoft.Resources stable version used when the
// caller does not pin one.
const resourcesAPIVersion = "2021-04-01"

type AzureService struct{ c *Client }

func NewAzureService(c *Client) *AzureService { return &AzureService{c: c} }

// ListResources enumerates every resource in a subscription, following
// nextLink cursors when FetchAll is set.
func (s *AzureService) ListResources(ctx context.Context, in *ListResourcesInput) (*ListResourcesOutput, error) {
	if in.SubscriptionID == "" {
		return nil, fmt.Errorf("subscriptionId is required")
	}
	apiVersion := in.APIVersion
	if apiVersion == "" {
		apiVersion = resourcesAPIVersion
	}
	var query map[string]string
	if in.Filter != "" {
		query = map[string]string{"$filter": in.Filter}
	}
	res := s.c.Call(ctx, &Request{
		Backend:        BackendAzure,
		Path:           "/resources",
		SubscriptionID: in.SubscriptionID,
		APIVersion:     apiVersion,
		QueryParams:    query,
		FetchAll:       in.FetchAll,
	})
	if res.Failed() {
		return nil, callError("list resources", res)
	}
	var payload struct {
		Value     []resourcePayload `json:"value"`
		AllValues []resourcePayload `json:"allValues"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	rows := payload.Value
	if in.FetchAll {
		rows = payload.AllValues
	}
	out := &ListResourcesOutput{MorePages: HasMorePages(res.Data, BackendAzure)}
	for _, r := range rows {
		out.Resources = append(out.Resources, AzureResource{ID: r.ID, Name: r.Name, Type: r.Type, Location: r.Location})
	}
	return out, nil
}

type resourcePayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}
