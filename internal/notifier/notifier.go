// Package notifier publishes knowledge registrations to SQS so the new document id can be persisted.
package notifier

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
)

// Messenger is an abstraction for a SQS client
type Messenger interface {
	SendMessage(*sqs.SendMessageInput) (*sqs.SendMessageOutput, error)
}

// Event describes a registered knowledge document
type Event struct {
	Mode       string `json:"mode"`
	UserName   string `json:"userName,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	RemoteURL  string `json:"remoteUrl"`
	DocumentID string `json:"documentId"`
	PreviousID string `json:"previousDocumentId,omitempty"`
	Deleted    bool   `json:"previousDeleted"`
}

// Notifier writes registration events to a queue
type Notifier struct {
	sqs   Messenger
	queue string
}

// New returns a Notifier, or nil when no queue is configured
func New(m Messenger, queueURL string) *Notifier {
	if m == nil || queueURL == "" {
		return nil
	}
	return &Notifier{sqs: m, queue: queueURL}
}

// Publish writes an event to SQS
func (n *Notifier) Publish(e Event) error {

	sm, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("could not marshal SQS payload: %s", err)
	}

	in := sqs.SendMessageInput{
		MessageBody: aws.String(string(sm)),
		QueueUrl:    aws.String(n.queue),
	}

	_, err = n.sqs.SendMessage(&in)
	if err != nil {
		return fmt.Errorf("could not publish registration: %s", err)
	}

	return nil
}
