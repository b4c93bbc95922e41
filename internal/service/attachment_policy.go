package service

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/gema-assessment-api/internal/dto"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/models"
)

// AttachmentPolicy checks declared attachment MIME types against an allow-list.
type AttachmentPolicy struct {
	allowed []string
}

// NewAttachmentPolicy builds a policy. An empty list allows every type.
func NewAttachmentPolicy(allowed []string) AttachmentPolicy {
	normalized := make([]string, 0, len(allowed))
	for _, item := range allowed {
		if trimmed := strings.ToLower(strings.TrimSpace(item)); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return AttachmentPolicy{allowed: normalized}
}

// Allows reports whether declared, or one of its parent types, is on the allow-list.
func (p AttachmentPolicy) Allows(declared string) bool {
	if len(p.allowed) == 0 {
		return true
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" {
		return false
	}

	mime := mimetype.Lookup(declared)
	if mime == nil {
		for _, allowed := range p.allowed {
			if allowed == declared {
				return true
			}
		}
		return false
	}

	for current := mime; current != nil; current = current.Parent() {
		for _, allowed := range p.allowed {
			if current.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// Convert validates and converts request attachments.
func (p AttachmentPolicy) Convert(items []dto.AttachmentRequest) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(items))
	for _, item := range items {
		if !p.Allows(item.Type) {
			return nil, grading.FieldError("attachments", "attachment %s has a disallowed type %s", item.Name, item.Type)
		}
		attachments = append(attachments, models.Attachment{
			Name: strings.TrimSpace(item.Name),
			URL:  strings.TrimSpace(item.URL),
			Size: item.Size,
			Type: strings.ToLower(strings.TrimSpace(item.Type)),
		})
	}
	return attachments, nil
}
