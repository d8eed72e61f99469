// Package handler is the HTTP layer that sits between the router and the
// services.
//
// It binds and validates requests using the validation package, calls the
// service layer and writes the response.
package handler
