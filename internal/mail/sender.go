package mail

import "context"

// Message represents an email to be sent.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender abstracts the delivery transport for injection and testing. The rest
// of the system only cares that Send is fallible.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	notifySubject = "You have a new message"
	notifyBody    = "This is an automated notification from the messaging system."
)

// Compose builds the fixed-template notification for recipient.
func Compose(from, to string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: notifySubject,
		Body:    notifyBody,
	}
}
