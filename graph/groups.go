package graph

import (
	"context"
	"fmt"
	"net/url"
)

type GroupService struct{ c *Client }

func NewGroupService(c *Client) *GroupService { return &GroupService{c: c} }

func (s *GroupService) List(ctx context.Context, in *ListGroupsInput) (*ListGroupsOutput, error) {
	if in.Top == 0 {
		in.Top = 25
	}
	query := map[string]string{
		"$top":    fmt.Sprintf("%d", in.Top),
		"$select": "id,displayName,mail,description",
	}
	req := &Request{
		Backend:     BackendGraph,
		Path:        "/groups",
		QueryParams: query,
		FetchAll:    in.FetchAll,
	}
	if in.Filter != "" {
		query["$filter"] = in.Filter
		query["$count"] = "true"
		req.ConsistencyLevel = "eventual"
	}
	res := s.c.Call(ctx, req)
	if res.Failed() {
		return nil, callError("list groups", res)
	}
	var payload struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
			Mail        string `json:"mail"`
			Description string `json:"description"`
		} `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListGroupsOutput{MorePages: HasMorePages(res.Data, BackendGraph)}
	for _, g := range payload.Value {
		out.Groups = append(out.Groups, Group{ID: g.ID, DisplayName: g.DisplayName, Mail: g.Mail, Description: g.Description})
	}
	return out, nil
}

func (s *GroupService) ListMembers(ctx context.Context, in *ListGroupMembersInput) (*ListGroupMembersOutput, error) {
	if in.GroupID == "" {
		return nil, fmt.Errorf("groupId is required")
	}
	if in.Top == 0 {
		in.Top = 25
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/groups/" + url.PathEscape(in.GroupID) + "/members",
		QueryParams: map[string]string{
			"$top":    fmt.Sprintf("%d", in.Top),
			"$select": "id,displayName,userPrincipalName,mail",
		},
		FetchAll: in.FetchAll,
	})
	if res.Failed() {
		return nil, callError("list group members", res)
	}
	var payload struct {
		Value []userPayload `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListGroupMembersOutput{MorePages: HasMorePages(res.Data, BackendGraph)}
	for _, u := range payload.Value {
		out.Members = append(out.Members, u.toUser())
	}
	return out, nil
}
