package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kajal19803/dairyfrontend/internal/domain"
)

func (c *Client) Triage(ctx context.Context, message string) (domain.TriageReply, error) {
	var reply domain.TriageReply
	err := c.doJSON(ctx, http.MethodPost, "/api/chat", map[string]string{"message": message}, &reply)
	return reply, err
}

func (c *Client) RecentOrders(ctx context.Context) ([]domain.RecentOrder, error) {
	var resp struct {
		Orders []domain.RecentOrder `json:"orders"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/payment/recent", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// SubmitTicket posts draft as a multipart form and returns the ticket number
// the backend assigned.
func (c *Client) SubmitTicket(ctx context.Context, draft domain.TicketDraft) (string, error) {
	body, contentType, err := ticketForm(draft)
	if err != nil {
		return "", err
	}

	var resp struct {
		TicketNumber json.RawMessage `json:"ticketNumber"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tickets", body, contentType, &resp); err != nil {
		return "", err
	}

	ticket := scalar(resp.TicketNumber)
	if ticket == "" {
		return "", errors.New("ticket response has no ticketNumber")
	}
	return ticket, nil
}

func ticketForm(draft domain.TicketDraft) (*bytes.Buffer, string, error) {
	names := draft.ProductNames
	if names == nil {
		names = []string{}
	}
	encodedNames, err := json.Marshal(names)
	if err != nil {
		return nil, "", fmt.Errorf("encode product names: %w", err)
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []struct{ name, value string }{
		{"issueType", string(draft.IssueType)},
		{"message", draft.Message},
		{"orderId", draft.OrderID},
		{"productNames", string(encodedNames)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if img := draft.Image; img != nil {
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := img.Filename
		if filename == "" {
			filename = "image"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, escapeQuotes(filename)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
