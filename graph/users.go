package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type UserService struct{ c *Client }

func NewUserService(c *Client) *UserService { return &UserService{c: c} }

type userPayload struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	JobTitle          string `json:"jobTitle"`
}

func (p userPayload) toUser() User {
	return User{
		ID: p.ID, DisplayName: p.DisplayName,
		UserPrincipalName: p.UserPrincipalName, Mail: p.Mail, JobTitle: p.JobTitle,
	}
}

func (s *UserService) List(ctx context.Context, in *ListUsersInput) (*ListUsersOutput, error) {
	if in.Top == 0 {
		in.Top = 25
	}
	query := map[string]string{
		"$top":    fmt.Sprintf("%d", in.Top),
		"$select": "id,displayName,userPrincipalName,mail,jobTitle",
	}
	if in.Filter != "" {
		query["$filter"] = in.Filter
	}
	if in.Search != "" {
		query["$search"] = in.Search
	}
	if len(in.OrderBy) > 0 {
		query["$orderby"] = strings.Join(in.OrderBy, ",")
	}
	req := &Request{
		Backend:     BackendGraph,
		Path:        "/users",
		QueryParams: query,
		FetchAll:    in.FetchAll,
	}
	// $search, $count and non-indexed $filter need the eventual-consistency
	// directive on directory objects.
	if in.Search != "" || in.Filter != "" {
		query["$count"] = "true"
		req.ConsistencyLevel = "eventual"
	}
	res := s.c.Call(ctx, req)
	if res.Failed() {
		return nil, callError("list users", res)
	}
	var payload struct {
		Value []userPayload `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListUsersOutput{MorePages: HasMorePages(res.Data, BackendGraph)}
	for _, u := range payload.Value {
		out.Users = append(out.Users, u.toUser())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, in *GetUserInput) (*User, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("user id or principal name is required")
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/users/" + url.PathEscape(in.ID),
		QueryParams: map[string]string{
			"$select": "id,displayName,userPrincipalName,mail,jobTitle",
		},
	})
	if res.Failed() {
		return nil, callError("get user", res)
	}
	var payload userPayload
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	user := payload.toUser()
	return &user, nil
}
