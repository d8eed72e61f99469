// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP layer is rendered as an HTTPError
// (code, message, status and optional field errors) so clients see one
// consistent JSON body.
package errs
