package notifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/tidwall/gjson"
)

type mockSQS struct {
	sqsiface.SQSAPI
	err  error
	sent []*sqs.SendMessageInput
}

func (ms *mockSQS) SendMessage(in *sqs.SendMessageInput) (*sqs.SendMessageOutput, error) {
	ms.sent = append(ms.sent, in)
	if ms.err != nil {
		return nil, ms.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestNewWithoutQueue(t *testing.T) {

	if n := New(&mockSQS{}, ""); n != nil {
		t.Errorf("expected nil notifier without a queue")
	}
	if n := New(nil, "https://sqs.local/q"); n != nil {
		t.Errorf("expected nil notifier without a client")
	}
}

func TestPublish(t *testing.T) {

	tt := []struct {
		name string
		err  error
		want string
	}{
		{name: "happy"},
		{name: "unhappy", err: errors.New("throttled"), want: "could not publish registration: throttled"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			m := &mockSQS{err: tc.err}
			n := New(m, "https://sqs.local/q")

			err := n.Publish(Event{
				Mode: "cumulative", UserName: "Lee", SessionID: "s1",
				RemoteURL: "https://raw/x", DocumentID: "doc_new", PreviousID: "doc_old", Deleted: true,
			})

			if tc.want != "" {
				if err == nil || !strings.Contains(err.Error(), tc.want) {
					t.Errorf("expected error %q, got: %v", tc.want, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(m.sent) != 1 {
				t.Fatalf("expected one message, got %d", len(m.sent))
			}
			if q := aws.StringValue(m.sent[0].QueueUrl); q != "https://sqs.local/q" {
				t.Errorf("wrong queue: %v", q)
			}
			body := aws.StringValue(m.sent[0].MessageBody)
			if id := gjson.Get(body, "documentId").String(); id != "doc_new" {
				t.Errorf("expected documentId doc_new, got %v", id)
			}
			if prev := gjson.Get(body, "previousDocumentId").String(); prev != "doc_old" {
				t.Errorf("expected previousDocumentId doc_old, got %v", prev)
			}
		})
	}
}
