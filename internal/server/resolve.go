// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/resolvd-dev/resolvd/internal/agent"
	"github.com/resolvd-dev/resolvd/internal/ticket"
	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// AttachmentInput is one attachment record in a resolve request.
type AttachmentInput struct {
	ID          string `json:"id,omitempty" doc:"Attachment identifier"`
	Name        string `json:"name" doc:"File name"`
	ContentType string `json:"content_type,omitempty" doc:"MIME type"`
	URL         string `json:"url,omitempty" doc:"Download URL"`
	Text        string `json:"text,omitempty" doc:"Extracted text content"`
}

// TicketInput is the ticket payload of a resolve request.
type TicketInput struct {
	ID             string            `json:"id" minLength:"1" doc:"Ticket identifier"`
	Subject        string            `json:"subject,omitempty" doc:"Ticket subject line"`
	Body           string            `json:"body,omitempty" doc:"Ticket body text"`
	RequesterName  string            `json:"requester_name,omitempty"`
	RequesterEmail string            `json:"requester_email,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	ImageURLs      []string          `json:"image_urls,omitempty" doc:"URLs of images attached to the ticket"`
	Attachments    []AttachmentInput `json:"attachments,omitempty"`
}

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Body struct {
		Ticket TicketInput `json:"ticket"`
	}
}

// ResolveResponse wraps the run result.
type ResolveResponse struct {
	Body agent.RunResult
}

func registerResolve(api huma.API, resolver Resolver) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-ticket",
		Method:      http.MethodPost,
		Path:        "/v1/resolve",
		Summary:     "Resolve a support ticket",
		Description: "Runs the resolution loop on the given ticket and returns the normalized evidence bundle.",
		Tags:        []string{"resolve"},
	}, func(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
		t := toTicket(req.Body.Ticket)

		result, err := resolver.Run(ctx, t)
		if err != nil {
			slog.ErrorContext(ctx, "resolve request failed", "ticket_id", t.ID, "error", err)
			return nil, huma.NewError(resolvderr.HTTPStatus(err), "resolving ticket: "+err.Error())
		}

		return &ResolveResponse{Body: *result}, nil
	})
}

func toTicket(in TicketInput) *ticket.Ticket {
	atts := make([]ticket.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		atts = append(atts, ticket.Attachment{
			ID:          a.ID,
			Name:        a.Name,
			ContentType: a.ContentType,
			URL:         a.URL,
			Text:        a.Text,
		})
	}

	return &ticket.Ticket{
		ID:             in.ID,
		Subject:        in.Subject,
		Body:           in.Body,
		RequesterName:  in.RequesterName,
		RequesterEmail: in.RequesterEmail,
		Priority:       in.Priority,
		Tags:           in.Tags,
		ImageURLs:      in.ImageURLs,
		Attachments:    atts,
	}
}
