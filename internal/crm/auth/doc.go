// Package auth drives the OAuth2 authorization-code and refresh-token grants
// against the CRM login service and keeps the resulting session in a
// session.Store.
//
// A Flow moves through three states:
//
//	Unauthenticated → AwaitingAuthorization → Authenticated
//
// and falls back to Unauthenticated on logout or when the remote rejects a
// refresh. The interactive step is abstracted behind Opener and Interaction:
// the flow opens an authorization window and polls its location until the
// redirect URI shows up, the window is closed, or the context ends.
package auth
