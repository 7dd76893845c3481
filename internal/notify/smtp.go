package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// subjects maps notification kinds to mail subjects.
var subjects = map[string]string{
	KindTransferInitiated: "You have been named as the buyer of a vehicle",
	KindTransferAccepted:  "The buyer accepted your vehicle transfer",
	KindTransferCompleted: "Vehicle ownership transfer completed",
	KindTransferRejected:  "Vehicle ownership transfer rejected",
	KindTransferCancelled: "Vehicle ownership transfer cancelled",
}

// SMTP sends notification mail through a plain SMTP relay.
type SMTP struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // nil for an unauthenticated relay
}

// Notify builds a plain-text message for the kind and sends it. Unknown kinds
// are an error so misspelled template keys surface in logs instead of sending
// empty mail.
func (s *SMTP) Notify(ctx context.Context, recipientEmail, kind string, payload map[string]string) error {
	subject, ok := subjects[kind]
	if !ok {
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", s.From)
	fmt.Fprintf(&body, "To: %s\r\n", recipientEmail)
	fmt.Fprintf(&body, "Subject: %s\r\n", subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	body.WriteString(subject + ".\r\n\r\n")
	for _, key := range []string{"car", "price", "seller", "buyer", "reason"} {
		if v := payload[key]; v != "" {
			fmt.Fprintf(&body, "%s: %s\r\n", strings.ToUpper(key[:1])+key[1:], v)
		}
	}

	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{recipientEmail}, []byte(body.String())); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}
