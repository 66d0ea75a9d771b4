// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package ticket defines the static ticket facts the resolution loop
// consumes. The loop never mutates ticket state; all ticketing-system
// writes happen outside this module.
package ticket

import "strings"

// Attachment is a non-image file attached to a ticket, with any text
// already extracted by the ingestion pipeline.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	Text        string `json:"text,omitempty"`
}

// Ticket holds the facts of one support ticket as handed to the loop.
type Ticket struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	Body           string       `json:"body"`
	RequesterName  string       `json:"requester_name,omitempty"`
	RequesterEmail string       `json:"requester_email,omitempty"`
	Priority       string       `json:"priority,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	ImageURLs      []string     `json:"image_urls,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// HasImages reports whether the ticket carries any image attachments.
func (t *Ticket) HasImages() bool { return len(t.ImageURLs) > 0 }

// HasAttachments reports whether the ticket carries any non-image attachments.
func (t *Ticket) HasAttachments() bool { return len(t.Attachments) > 0 }

// Text returns the subject and body joined for embedding queries.
func (t *Ticket) Text() string {
	return strings.TrimSpace(t.Subject + "\n" + t.Body)
}

// AttachmentNames returns the names of all attachments, for context display.
func (t *Ticket) AttachmentNames() []string {
	if len(t.Attachments) == 0 {
		return nil
	}
	names := make([]string, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		names = append(names, a.Name)
	}
	return names
}
