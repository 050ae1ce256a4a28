package crm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teemow/inboxcrm/internal/logging"
)

// Task defaults applied when ActivityData leaves them empty.
const (
	DefaultTaskStatus   = "Completed"
	DefaultTaskPriority = "Normal"

	// EmailMessage status picklist values. Received mail is logged as read,
	// outgoing mail as sent.
	emailStatusRead = "1"
	emailStatusSent = "3"
)

// Relation says how a task points at its related record.
type Relation int

const (
	RelationNone Relation = iota
	// RelationWho links a person: Contact or Lead.
	RelationWho
	// RelationWhat links an entity: Account, Opportunity and other objects.
	RelationWhat
)

// idPrefixes maps record id key prefixes to their object type.
var idPrefixes = map[string]string{
	"003": ObjectContact,
	"00Q": ObjectLead,
	"001": ObjectAccount,
	"006": ObjectOpportunity,
}

// ObjectTypeFromID infers the object type from a record id's key prefix.
func ObjectTypeFromID(id string) (string, bool) {
	if len(id) < 3 {
		return "", false
	}
	t, ok := idPrefixes[id[:3]]
	return t, ok
}

// ClassifyRelation decides whether a record of objectType is linked as who or
// what. An empty objectType is inferred from id.
func ClassifyRelation(objectType, id string) (Relation, error) {
	if id == "" {
		return RelationNone, nil
	}
	if objectType == "" {
		t, ok := ObjectTypeFromID(id)
		if !ok {
			return RelationNone, fmt.Errorf("%w: cannot infer type of %q", ErrUnknownRelation, id)
		}
		objectType = t
	}
	switch strings.ToLower(objectType) {
	case "contact", "lead":
		return RelationWho, nil
	case "account", "opportunity", "case", "campaign", "contract":
		return RelationWhat, nil
	default:
		return RelationNone, fmt.Errorf("%w: %s", ErrUnknownRelation, objectType)
	}
}

func emailStatus(email EmailData) string {
	if email.Incoming {
		return emailStatusRead
	}
	return emailStatusSent
}

// LogEmail records email as an EmailMessage, linked to relatedRecordID when
// one is given.
func (c *Client) LogEmail(ctx context.Context, email EmailData, relatedRecordID string) (*CreateResult, error) {
	fields := map[string]any{
		"Subject":     email.Subject,
		"FromAddress": email.From,
		"MessageDate": c.messageDate(email).UTC().Format("2006-01-02T15:04:05.000Z"),
		"Status":      emailStatus(email),
		"Incoming":    email.Incoming,
	}
	if email.Body != "" {
		fields["TextBody"] = Truncate(email.Body, MaxTextLength)
	}
	if email.HTMLBody != "" {
		fields["HtmlBody"] = Truncate(email.HTMLBody, MaxTextLength)
	}
	if email.FromName != "" {
		fields["FromName"] = email.FromName
	}
	if len(email.To) > 0 {
		fields["ToAddress"] = strings.Join(email.To, "; ")
	}
	if len(email.CC) > 0 {
		fields["CcAddress"] = strings.Join(email.CC, "; ")
	}
	if relatedRecordID != "" {
		fields["RelatedToId"] = relatedRecordID
	}

	res, err := c.create(ctx, ObjectEmailMessage, fields)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Email logged",
		logging.Operation("log_email"),
		logging.RecordID(res.ID),
		logging.UserHash(email.From))
	return res, nil
}

// CreateActivityFromEmail creates a task describing email.
func (c *Client) CreateActivityFromEmail(ctx context.Context, email EmailData, activity ActivityData) (*CreateResult, error) {
	relation, err := ClassifyRelation(activity.RelatedRecordType, activity.RelatedRecordID)
	if err != nil {
		return nil, err
	}

	subject := activity.Subject
	if subject == "" {
		subject = "Email: " + email.Subject
	}
	description := activity.Description
	if description == "" {
		description = emailSummary(email)
	}

	fields := map[string]any{
		"Subject":     Truncate(subject, 255),
		"Description": Truncate(description, MaxTextLength),
		"Status":      orDefault(activity.Status, DefaultTaskStatus),
		"Priority":    orDefault(activity.Priority, DefaultTaskPriority),
		"TaskSubtype": "Email",
	}
	if activity.DueDate != nil {
		fields["ActivityDate"] = activity.DueDate.Format(time.DateOnly)
	} else {
		fields["ActivityDate"] = c.messageDate(email).Format(time.DateOnly)
	}
	if activity.OwnerID != "" {
		fields["OwnerId"] = activity.OwnerID
	}
	switch relation {
	case RelationWho:
		fields["WhoId"] = activity.RelatedRecordID
	case RelationWhat:
		fields["WhatId"] = activity.RelatedRecordID
	}

	res, err := c.create(ctx, ObjectTask, fields)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Task created from email",
		logging.Operation("create_activity"),
		logging.RecordID(res.ID))
	return res, nil
}

func (c *Client) messageDate(email EmailData) time.Time {
	if email.Date.IsZero() {
		return c.now()
	}
	return email.Date
}

func emailSummary(email EmailData) string {
	var sb strings.Builder
	if email.From != "" {
		fmt.Fprintf(&sb, "From: %s\n", email.From)
	}
	if len(email.To) > 0 {
		fmt.Fprintf(&sb, "To: %s\n", strings.Join(email.To, ", "))
	}
	if len(email.CC) > 0 {
		fmt.Fprintf(&sb, "Cc: %s\n", strings.Join(email.CC, ", "))
	}
	if email.Subject != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", email.Subject)
	}
	if email.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(email.Body)
	}
	return sb.String()
}

// Truncate shortens s to at most limit runes.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
