package graph

import (
	"context"
	"fmt"
	"strings"
)

type TaskService struct{ c *Client }

func NewTaskService(c *Client) *TaskService { return &TaskService{c: c} }

type todoListsPayload struct {
	Value []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"value"`
}

func (s *TaskService) List(ctx context.Context, in *ListTasksInput) (*ListTasksOutput, error) {
	if in.Top == 0 {
		in.Top = 20
	}
	lists, err := s.todoLists(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListTasksOutput{}
	for _, list := range lists.Value {
		if len(out.Tasks) >= in.Top {
			break
		}
		query := map[string]string{}
		if in.Filter != "" {
			query["$filter"] = in.Filter
		}
		if len(in.OrderBy) > 0 {
			query["$orderby"] = strings.Join(in.OrderBy, ",")
		}
		res := s.c.Call(ctx, &Request{
			Backend:     BackendGraph,
			Path:        "/me/todo/lists/" + list.ID + "/tasks",
			QueryParams: query,
		})
		if res.Failed() {
			// A single broken list should not hide the others.
			debugf("list tasks of %s: %s", list.DisplayName, res.Error)
			continue
		}
		var payload struct {
			Value []struct {
				ID          string `json:"id"`
				Title       string `json:"title"`
				Status      string `json:"status"`
				DueDateTime struct {
					DateTime string `json:"dateTime"`
				} `json:"dueDateTime"`
			} `json:"value"`
		}
		if err := decodeInto(res.Data, &payload); err != nil {
			continue
		}
		for _, t := range payload.Value {
			if len(out.Tasks) >= in.Top {
				break
			}
			out.Tasks = append(out.Tasks, Task{ID: t.ID, Title: t.Title, Status: t.Status, DueISO: t.DueDateTime.DateTime})
		}
	}
	return out, nil
}

func (s *TaskService) Create(ctx context.Context, in *CreateTaskInput) (*Task, error) {
	lists, err := s.todoLists(ctx)
	if err != nil {
		return nil, err
	}
	if len(lists.Value) == 0 {
		return nil, fmt.Errorf("no todo lists available")
	}
	listID := lists.Value[0].ID
	task := map[string]any{"title": in.Title}
	if in.BodyText != "" {
		task["body"] = map[string]string{"contentType": "Text", "content": in.BodyText}
	}
	if in.DueISO != "" {
		task["dueDateTime"] = map[string]string{"dateTime": in.DueISO, "timeZone": "UTC"}
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/me/todo/lists/" + listID + "/tasks",
		Method:  "POST",
		Body:    task,
	})
	if res.Failed() {
		return nil, callError("create task", res)
	}
	var created struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	if err := decodeInto(res.Data, &created); err != nil {
		return nil, err
	}
	return &Task{ID: created.ID, Title: created.Title, Status: created.Status}, nil
}

func (s *TaskService) todoLists(ctx context.Context) (*todoListsPayload, error) {
	res := s.c.Call(ctx, &Request{Backend: BackendGraph, Path: "/me/todo/lists"})
	if res.Failed() {
		return nil, callError("list todo lists", res)
	}
	var lists todoListsPayload
	if err := decodeInto(res.Data, &lists); err != nil {
		return nil, err
	}
	return &lists, nil
}
