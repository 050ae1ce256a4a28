// Package mailitem supplies the mail item a CRM operation acts on.
//
// A Source yields the current message as crm.EmailData. StaticSource wraps
// values given on the command line or in tool arguments; GmailSource reads a
// message from a Gmail mailbox.
package mailitem
