package graph

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// defaultSubscriptionTTL keeps new webhooks within Graph's per-resource
// maximum lifetime.
const defaultSubscriptionTTL = time.Hour

type SubscriptionService struct{ c *Client }

func NewSubscriptionService(c *Client) *SubscriptionService { return &SubscriptionService{c: c} }

type subscriptionPayload struct {
	ID                 string `json:"id"`
	Resource           string `json:"resource"`
	ChangeType         string `json:"changeType"`
	NotificationURL    string `json:"notificationUrl"`
	ExpirationDateTime string `json:"expirationDateTime"`
	ClientState        string `json:"clientState"`
}

func (p subscriptionPayload) toSubscription() Subscription {
	return Subscription{
		ID: p.ID, Resource: p.Resource, ChangeType: p.ChangeType,
		NotificationURL: p.NotificationURL, ExpirationDateTime: p.ExpirationDateTime,
		ClientState: p.ClientState,
	}
}

func (s *SubscriptionService) List(ctx context.Context) (*ListSubscriptionsOutput, error) {
	res := s.c.Call(ctx, &Request{Backend: BackendGraph, Path: "/subscriptions", FetchAll: true})
	if res.Failed() {
		return nil, callError("list subscriptions", res)
	}
	var payload struct {
		Value []subscriptionPayload `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListSubscriptionsOutput{}
	for _, sub := range payload.Value {
		out.Subscriptions = append(out.Subscriptions, sub.toSubscription())
	}
	return out, nil
}

func (s *SubscriptionService) Create(ctx context.Context, in *CreateSubscriptionInput) (*Subscription, error) {
	if in.Resource == "" || in.NotificationURL == "" {
		return nil, fmt.Errorf("resource and notificationUrl are required")
	}
	changeType := in.ChangeType
	if changeType == "" {
		changeType = "created,updated"
	}
	expiration := in.ExpirationISO
	if expiration == "" {
		expiration = time.Now().UTC().Add(defaultSubscriptionTTL).Format(time.RFC3339)
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/subscriptions",
		Method:  "POST",
		Body: map[string]any{
			"resource":           in.Resource,
			"changeType":         changeType,
			"notificationUrl":    in.NotificationURL,
			"expirationDateTime": expiration,
			"clientState":        uuid.New().String(),
		},
	})
	if res.Failed() {
		return nil, callError("create subscription", res)
	}
	var created subscriptionPayload
	if err := decodeInto(res.Data, &created); err != nil {
		return nil, err
	}
	sub := created.toSubscription()
	return &sub, nil
}

func (s *SubscriptionService) Renew(ctx context.Context, in *RenewSubscriptionInput) (*Subscription, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("subscription id is required")
	}
	expiration := in.ExpirationISO
	if expiration == "" {
		expiration = time.Now().UTC().Add(defaultSubscriptionTTL).Format(time.RFC3339)
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/subscriptions/" + url.PathEscape(in.ID),
		Method:  "PATCH",
		Body:    map[string]any{"expirationDateTime": expiration},
	})
	if res.Failed() {
		return nil, callError("renew subscription", res)
	}
	var renewed subscriptionPayload
	if err := decodeInto(res.Data, &renewed); err != nil {
		return nil, err
	}
	sub := renewed.toSubscription()
	return &sub, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, in *DeleteSubscriptionInput) error {
	if in.ID == "" {
		return fmt.Errorf("subscription id is required")
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/subscriptions/" + url.PathEscape(in.ID),
		Method:  "DELETE",
	})
	if res.Failed() {
		return callError("delete subscription", res)
	}
	return nil
}
