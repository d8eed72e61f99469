// Package validation binds request data and checks it against the
// `validate` struct tags of the payload types.
//
// Failures are returned as a 400 *errs.HTTPError carrying one FieldError
// per offending field, named after the field's JSON key.
package validation
