package crm

import (
	"context"
	"time"

	"github.com/teemow/inboxcrm/internal/crm/api"
)

// Object type names used by the operations.
const (
	ObjectContact      = "Contact"
	ObjectLead         = "Lead"
	ObjectAccount      = "Account"
	ObjectOpportunity  = "Opportunity"
	ObjectTask         = "Task"
	ObjectEmailMessage = "EmailMessage"
	ObjectUser         = "User"
	ObjectOrganization = "Organization"
)

// MaxTextLength is the longest body the remote accepts in a long text field.
const MaxTextLength = 32000

// Doer dispatches a data API request. *api.Executor implements it.
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body any, out any) error
}

// SearchResult is one flattened full-text search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Title   string `json:"title,omitempty"`
}

// RelatedRecords groups the records linked to a set of email addresses.
// Warnings lists the lookups that failed; the groups they would have filled
// are left empty.
type RelatedRecords struct {
	Contacts      []api.Record `json:"contacts"`
	Leads         []api.Record `json:"leads"`
	Accounts      []api.Record `json:"accounts"`
	Opportunities []api.Record `json:"opportunities"`
	Warnings      []string     `json:"warnings,omitempty"`
}

// EmailData is the mail item being logged.
type EmailData struct {
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	HTMLBody string    `json:"html_body,omitempty"`
	From     string    `json:"from"`
	FromName string    `json:"from_name,omitempty"`
	To       []string  `json:"to,omitempty"`
	CC       []string  `json:"cc,omitempty"`
	Date     time.Time `json:"date"`
	Incoming bool      `json:"incoming"`
}

// Addresses returns sender and recipients, in that order.
func (e EmailData) Addresses() []string {
	out := make([]string, 0, 1+len(e.To)+len(e.CC))
	if e.From != "" {
		out = append(out, e.From)
	}
	out = append(out, e.To...)
	out = append(out, e.CC...)
	return out
}

// ActivityData describes the task created from an email.
type ActivityData struct {
	Subject     string     `json:"subject,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`

	// RelatedRecordID links the task to a record. RelatedRecordType selects
	// whether the link is a person (Contact, Lead) or an entity (Account,
	// Opportunity); when empty it is inferred from the id.
	RelatedRecordID   string `json:"related_record_id,omitempty"`
	RelatedRecordType string `json:"related_record_type,omitempty"`
}

// ContactInput holds the fields of a new contact.
type ContactInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// LeadInput holds the fields of a new lead.
type LeadInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
}

// CreateResult is the remote's answer to a record creation.
type CreateResult struct {
	ID      string             `json:"id"`
	Success bool               `json:"success"`
	Errors  []api.ErrorMessage `json:"errors,omitempty"`
}

// UserInfo describes the authenticated user.
type UserInfo struct {
	UserID   string `json:"user_id"`
	OrgID    string `json:"organization_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"preferred_username"`
}

// OrganizationInfo describes the connected organization.
type OrganizationInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	InstanceName string `json:"instance_name,omitempty"`
	IsSandbox    bool   `json:"is_sandbox"`
}

// ConnectionResult summarizes a connection check. Error is set when
// Success is false.
type ConnectionResult struct {
	Success      bool              `json:"success"`
	User         *UserInfo         `json:"user,omitempty"`
	Organization *OrganizationInfo `json:"organization,omitempty"`
	Error        string            `json:"error,omitempty"`
}
