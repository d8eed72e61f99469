// Package lib holds integrations that do not belong to a single layer:
// background jobs on Redis/Asynq (lib/job) and the Resend e-mail client
// (lib/email).
package lib
