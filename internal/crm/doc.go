// Package crm implements the CRM operations the add-in needs: searching
// contacts and leads, gathering the records related to an email, logging an
// email or a follow-up task, and basic record CRUD.
//
// Operations build their queries with package query and dispatch them through
// a Doer, normally an *api.Executor.
package crm
