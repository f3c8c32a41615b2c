package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"certify-backend/internal/queue"
	"certify-backend/internal/workerproc"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeProcessor struct {
	err     error
	handles []string
}

func (f *fakeProcessor) ProcessCleanup(ctx context.Context, msg queue.Message) error {
	_ = ctx
	f.handles = append(f.handles, msg.Handle)
	return f.err
}

func sqsMessage(t *testing.T, id string, msg queue.Message) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String("m-" + id),
		ReceiptHandle: aws.String("r-" + id),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqsMessage(t, "1", queue.Message{Handle: "owner/a_cert.pdf", CertificateID: "c1", RequestID: "req-1"})

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.handles) != 1 || proc.handles[0] != "owner/a_cert.pdf" {
		t.Fatalf("unexpected handles %v", proc.handles)
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{err: errors.New("boom")}
	msg := sqsMessage(t, "2", queue.Message{Handle: "h2", RequestID: "req-2"})

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(proc.handles) != 0 {
		t.Fatalf("processor should not run for invalid messages")
	}
}

func TestWorkerDeletesOnProviderMismatch(t *testing.T) {
	client := &fakeSQS{}
	proc := &fakeProcessor{err: workerproc.ErrProviderMismatch{Want: "s3", Got: "gridfs"}}
	msg := sqsMessage(t, "4", queue.Message{Handle: "h4", Provider: "gridfs"})

	handleMessage(context.Background(), client, "queue", proc, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestReceiveCount(t *testing.T) {
	msg := sqstypes.Message{Attributes: map[string]string{"ApproximateReceiveCount": "3"}}
	if got := receiveCount(msg); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := receiveCount(sqstypes.Message{}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
