// Package service contains the business logic.
//
// It sits between the handler and repository layers: it validates write
// payloads before any store access, calls the repository and publishes
// sale change notifications once a write has committed.
package service
