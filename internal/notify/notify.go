// Package notify delivers best-effort notifications to transfer parties.
// Delivery failures are the caller's to log; the business transition that
// triggered the notification has already committed and is never rolled back.
package notify

import "context"

// Kinds of notifications sent by the transfer workflow.
const (
	KindTransferInitiated = "transfer_initiated"
	KindTransferAccepted  = "transfer_accepted"
	KindTransferCompleted = "transfer_completed"
	KindTransferRejected  = "transfer_rejected"
	KindTransferCancelled = "transfer_cancelled"
)

// Notifier sends a notification of the given kind to a recipient. Payload
// keys are template variables (car plate, price, reason, ...).
type Notifier interface {
	Notify(ctx context.Context, recipientEmail, kind string, payload map[string]string) error
}
