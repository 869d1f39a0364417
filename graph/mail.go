package graph

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

type MailService struct {
	c  *Client
	fs afs.Service
}

func NewMailService(c *Client) *MailService { return &MailService{c: c, fs: afs.New()} }

func (s *MailService) List(ctx context.Context, in *ListMailInput) (*ListMailOutput, error) {
	if in.Top == 0 {
		in.Top = 10
	}
	query := map[string]string{
		"$top":    fmt.Sprintf("%d", in.Top),
		"$select": "id,subject,from,receivedDateTime,bodyPreview",
	}
	if len(in.OrderBy) > 0 {
		query["$orderby"] = strings.Join(in.OrderBy, ",")
	} else {
		query["$orderby"] = "receivedDateTime DESC"
	}
	if in.Filter != "" {
		query["$filter"] = in.Filter
	} else if filter := receivedFilter(in.SinceISO, in.UntilISO); filter != "" {
		query["$filter"] = filter
	}
	res := s.c.Call(ctx, &Request{
		Backend:     BackendGraph,
		Path:        "/me/messages",
		QueryParams: query,
		FetchAll:    in.FetchAll,
	})
	if res.Failed() {
		return nil, callError("list messages", res)
	}
	var payload struct {
		Value []struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
			From    struct {
				EmailAddress struct {
					Address string `json:"address"`
				} `json:"emailAddress"`
			} `json:"from"`
			Received string `json:"receivedDateTime"`
			Preview  string `json:"bodyPreview"`
		} `json:"value"`
	}
	if err := decodeInto(res.Data, &payload); err != nil {
		return nil, err
	}
	out := &ListMailOutput{MorePages: HasMorePages(res.Data, BackendGraph)}
	for _, m := range payload.Value {
		out.Messages = append(out.Messages, Message{
			ID: m.ID, Subject: m.Subject, From: m.From.EmailAddress.Address,
			Received: m.Received, Preview: m.Preview,
		})
	}
	return out, nil
}

func receivedFilter(sinceISO, untilISO string) string {
	var parts []string
	if sinceISO != "" {
		parts = append(parts, "receivedDateTime ge "+sinceISO)
	}
	if untilISO != "" {
		parts = append(parts, "receivedDateTime le "+untilISO)
	}
	return strings.Join(parts, " and ")
}

func (s *MailService) Send(ctx context.Context, in *SendMailInput) error {
	msg := map[string]any{"subject": in.Subject}
	if in.BodyHTML != "" {
		msg["body"] = map[string]string{"contentType": "HTML", "content": in.BodyHTML}
	} else {
		msg["body"] = map[string]string{"contentType": "Text", "content": in.BodyText}
	}
	if to := recipients(in.To); len(to) > 0 {
		msg["toRecipients"] = to
	}
	if cc := recipients(in.Cc); len(cc) > 0 {
		msg["ccRecipients"] = cc
	}
	if in.Importance != "" {
		msg["importance"] = in.Importance
	}
	if len(in.Attachments) > 0 {
		attachments, err := s.loadAttachments(ctx, in.Attachments)
		if err != nil {
			return err
		}
		msg["attachments"] = attachments
	}
	res := s.c.Call(ctx, &Request{
		Backend: BackendGraph,
		Path:    "/me/sendMail",
		Method:  "POST",
		Body:    map[string]any{"message": msg, "saveToSentItems": true},
	})
	if res.Failed() {
		return callError("send mail", res)
	}
	return nil
}

func recipients(addresses []string) []map[string]any {
	var out []map[string]any
	for _, a := range addresses {
		if a == "" {
			continue
		}
		out = append(out, map[string]any{"emailAddress": map[string]string{"address": a}})
	}
	return out
}

// loadAttachments reads each location through afs (local paths or URLs) and
// encodes it as a Graph fileAttachment.
func (s *MailService) loadAttachments(ctx context.Context, locations []string) ([]map[string]any, error) {
	var out []map[string]any
	for _, location := range locations {
		data, err := s.fs.DownloadWithURL(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", location, err)
		}
		out = append(out, map[string]any{
			"@odata.type":  "#microsoft.graph.fileAttachment",
			"name":         filepath.Base(location),
			"contentBytes": base64.StdEncoding.EncodeToString(data),
		})
	}
	return out, nil
}
