package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"

	"github.com/XiansAiPlatform/mcp-msgraph/auth"
	"github.com/XiansAiPlatform/mcp-msgraph/graph"
)

//go:embed tools/msgraphListMail.md
var listMailDesc string

//go:embed tools/msgraphSendMail.md
var sendMailDesc string

//go:embed tools/msgraphListEvents.md
var listEventsDesc string

//go:embed tools/msgraphCreateEvent.md
var createEventDesc string

//go:embed tools/msgraphListTasks.md
var listTasksDesc string

//go:embed tools/msgraphCreateTask.md
var createTaskDesc string

//go:embed tools/msgraphListUsers.md
var listUsersDesc string

//go:embed tools/msgraphGetUser.md
var getUserDesc string

//go:embed tools/msgraphListGroups.md
var listGroupsDesc string

//go:embed tools/msgraphListGroupMembers.md
var listGroupMembersDesc string

//go:embed tools/msgraphListSubscriptions.md
var listSubscriptionsDesc string

//go:embed tools/msgraphCreateSubscription.md
var createSubscriptionDesc string

//go:embed tools/msgraphRenewSubscription.md
var renewSubscriptionDesc string

//go:embed tools/msgraphDeleteSubscription.md
var deleteSubscriptionDesc string

//go:embed tools/msgraphApiCall.md
var graphAPICallDesc string

//go:embed tools/azureApiCall.md
var azureAPICallDesc string

//go:embed tools/azureListResources.md
var azureListResourcesDesc string

//go:embed tools/msgraphAuthStatus.md
var authStatusDesc string

//go:embed tools/msgraphUpdateAccessToken.md
var updateTokenDesc string

//go:embed tools/msgraphReauthenticate.md
var reauthenticateDesc string

// AuthStatusInput has no parameters.
type AuthStatusInput struct{}

type AuthStatusOutput struct {
	AuthMode  auth.Mode  `json:"authMode"`
	IsExpired bool       `json:"isExpired"`
	ExpiresOn *time.Time `json:"expiresOn,omitempty"`
}

type UpdateTokenInput struct {
	AccessToken string `json:"accessToken"`
	// ExpiresOnISO is optional; when omitted the expiry is recovered from the
	// token's exp claim if it parses as a JWT.
	ExpiresOnISO string `json:"expiresOnISO,omitempty"`
}

type UpdateTokenOutput struct {
	Updated  bool   `json:"updated"`
	Identity string `json:"identity,omitempty"`
}

// ListSubscriptionsInput has no parameters.
type ListSubscriptionsInput struct{}

type ReauthenticateInput struct {
	// AuthMode selects the new credential strategy; see auth.ParseMode.
	AuthMode            string `json:"authMode"`
	TenantID            string `json:"tenantID,omitempty"`
	ClientID            string `json:"clientID,omitempty"`
	ClientSecret        string `json:"clientSecret,omitempty"`
	CertificatePath     string `json:"certificatePath,omitempty"`
	CertificatePassword string `json:"certificatePassword,omitempty"`
	RedirectURI         string `json:"redirectURI,omitempty"`
	AccessToken         string `json:"accessToken,omitempty"`
}

type ReauthenticateOutput struct {
	AuthMode auth.Mode `json:"authMode"`
	// PendingID identifies the background browser sign-in, when one started.
	PendingID string `json:"pendingID,omitempty"`
}

func registerTools(base *protoserver.DefaultHandler, h *Handler) error {
	svc := h.service

	// Mail
	if err := protoserver.RegisterTool[*graph.ListMailInput, *graph.ListMailOutput](base.Registry, "msgraphListMail", listMailDesc, func(ctx context.Context, in *graph.ListMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewMailService(client).List(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.SendMailInput, *struct{}](base.Registry, "msgraphSendMail", sendMailDesc, func(ctx context.Context, in *graph.SendMailInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if len(in.To) == 0 {
			return buildErrorResult("at least one recipient is required")
		}
		_, client := svc.Session()
		if err := graph.NewMailService(client).Send(ctx, in); err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, map[string]any{"status": "sent"})
	}); err != nil {
		return err
	}

	// Calendar
	if err := protoserver.RegisterTool[*graph.ListEventsInput, *graph.ListEventsOutput](base.Registry, "msgraphListEvents", listEventsDesc, func(ctx context.Context, in *graph.ListEventsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewCalendarService(client).List(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.CreateEventInput, *graph.CalendarEvent](base.Registry, "msgraphCreateEvent", createEventDesc, func(ctx context.Context, in *graph.CreateEventInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if in.Subject == "" || in.StartISO == "" || in.EndISO == "" {
			return buildErrorResult("subject, startISO and endISO are required")
		}
		_, client := svc.Session()
		out, err := graph.NewCalendarService(client).Create(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Tasks
	if err := protoserver.RegisterTool[*graph.ListTasksInput, *graph.ListTasksOutput](base.Registry, "msgraphListTasks", listTasksDesc, func(ctx context.Context, in *graph.ListTasksInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewTaskService(client).List(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.CreateTaskInput, *graph.Task](base.Registry, "msgraphCreateTask", createTaskDesc, func(ctx context.Context, in *graph.CreateTaskInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if in.Title == "" {
			return buildErrorResult("title is required")
		}
		_, client := svc.Session()
		out, err := graph.NewTaskService(client).Create(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Users
	if err := protoserver.RegisterTool[*graph.ListUsersInput, *graph.ListUsersOutput](base.Registry, "msgraphListUsers", listUsersDesc, func(ctx context.Context, in *graph.ListUsersInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewUserService(client).List(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.GetUserInput, *graph.User](base.Registry, "msgraphGetUser", getUserDesc, func(ctx context.Context, in *graph.GetUserInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewUserService(client).Get(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Groups
	if err := protoserver.RegisterTool[*graph.ListGroupsInput, *graph.ListGroupsOutput](base.Registry, "msgraphListGroups", listGroupsDesc, func(ctx context.Context, in *graph.ListGroupsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewGroupService(client).List(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.ListGroupMembersInput, *graph.ListGroupMembersOutput](base.Registry, "msgraphListGroupMembers", listGroupMembersDesc, func(ctx context.Context, in *graph.ListGroupMembersInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewGroupService(client).ListMembers(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Subscriptions
	if err := protoserver.RegisterTool[*ListSubscriptionsInput, *graph.ListSubscriptionsOutput](base.Registry, "msgraphListSubscriptions", listSubscriptionsDesc, func(ctx context.Context, _ *ListSubscriptionsInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewSubscriptionService(client).List(ctx)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.CreateSubscriptionInput, *graph.Subscription](base.Registry, "msgraphCreateSubscription", createSubscriptionDesc, func(ctx context.Context, in *graph.CreateSubscriptionInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewSubscriptionService(client).Create(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.RenewSubscriptionInput, *graph.Subscription](base.Registry, "msgraphRenewSubscription", renewSubscriptionDesc, func(ctx context.Context, in *graph.RenewSubscriptionInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewSubscriptionService(client).Renew(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.DeleteSubscriptionInput, *struct{}](base.Registry, "msgraphDeleteSubscription", deleteSubscriptionDesc, func(ctx context.Context, in *graph.DeleteSubscriptionInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		if err := graph.NewSubscriptionService(client).Delete(ctx, in); err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, map[string]any{"status": "deleted"})
	}); err != nil {
		return err
	}

	// Generic calls; the Result's error field is the failure signal here.
	if err := protoserver.RegisterTool[*graph.Request, *graph.Result](base.Registry, "msgraphApiCall", graphAPICallDesc, func(ctx context.Context, in *graph.Request) (*schema.CallToolResult, *jsonrpc.Error) {
		in.Backend = graph.BackendGraph
		_, client := svc.Session()
		res := client.Call(ctx, in)
		return buildSuccessResult(svc, res)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.Request, *graph.Result](base.Registry, "azureApiCall", azureAPICallDesc, func(ctx context.Context, in *graph.Request) (*schema.CallToolResult, *jsonrpc.Error) {
		in.Backend = graph.BackendAzure
		_, client := svc.Session()
		res := client.Call(ctx, in)
		return buildSuccessResult(svc, res)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*graph.ListResourcesInput, *graph.ListResourcesOutput](base.Registry, "azureListResources", azureListResourcesDesc, func(ctx context.Context, in *graph.ListResourcesInput) (*schema.CallToolResult, *jsonrpc.Error) {
		_, client := svc.Session()
		out, err := graph.NewAzureService(client).ListResources(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	// Authentication lifecycle
	if err := protoserver.RegisterTool[*AuthStatusInput, *AuthStatusOutput](base.Registry, "msgraphAuthStatus", authStatusDesc, func(ctx context.Context, _ *AuthStatusInput) (*schema.CallToolResult, *jsonrpc.Error) {
		manager, _ := svc.Session()
		status := manager.TokenStatus()
		return buildSuccessResult(svc, &AuthStatusOutput{
			AuthMode:  manager.Mode(),
			IsExpired: status.IsExpired,
			ExpiresOn: status.ExpiresOn,
		})
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*UpdateTokenInput, *UpdateTokenOutput](base.Registry, "msgraphUpdateAccessToken", updateTokenDesc, func(ctx context.Context, in *UpdateTokenInput) (*schema.CallToolResult, *jsonrpc.Error) {
		if in.AccessToken == "" {
			return buildErrorResult("accessToken is required")
		}
		var expiresOn time.Time
		if in.ExpiresOnISO != "" {
			parsed, err := time.Parse(time.RFC3339, in.ExpiresOnISO)
			if err != nil {
				return buildErrorResult("expiresOnISO must be RFC3339: " + err.Error())
			}
			expiresOn = parsed
		}
		manager, _ := svc.Session()
		if err := manager.UpdateAccessToken(in.AccessToken, expiresOn); err != nil {
			return buildErrorResult(err.Error())
		}
		out := &UpdateTokenOutput{Updated: true}
		if identity, ok := auth.TokenIdentity(in.AccessToken); ok {
			out.Identity = identity
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}
	if err := protoserver.RegisterTool[*ReauthenticateInput, *ReauthenticateOutput](base.Registry, "msgraphReauthenticate", reauthenticateDesc, func(ctx context.Context, in *ReauthenticateInput) (*schema.CallToolResult, *jsonrpc.Error) {
		mode, ok := auth.ParseMode(in.AuthMode)
		if !ok {
			return buildErrorResult("unknown authMode " + in.AuthMode)
		}
		err := svc.Reauthenticate(&auth.Config{
			Mode:                mode,
			TenantID:            in.TenantID,
			ClientID:            in.ClientID,
			ClientSecret:        in.ClientSecret,
			CertificatePath:     in.CertificatePath,
			CertificatePassword: in.CertificatePassword,
			RedirectURI:         in.RedirectURI,
			AccessToken:         in.AccessToken,
		})
		if err != nil {
			return buildErrorResult(err.Error())
		}
		out := &ReauthenticateOutput{AuthMode: mode}
		if mode == auth.ModeInteractive {
			manager, _ := svc.Session()
			out.PendingID = svc.StartInteractiveLogin(manager)
		}
		return buildSuccessResult(svc, out)
	}); err != nil {
		return err
	}

	return nil
}

// Helpers
func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(service *Service, payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	if service.UseTextField() {
		b, _ := json.Marshal(payload)
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{{Type: "text", Text: string(b)}}}, nil
	}
	return &schema.CallToolResult{StructuredContent: map[string]any{"result": payload}}, nil
}
