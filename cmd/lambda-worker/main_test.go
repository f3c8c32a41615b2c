package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"certify-backend/internal/queue"
)

type fakeProcessor struct {
	failHandle string
}

func (f fakeProcessor) ProcessCleanup(ctx context.Context, msg queue.Message) error {
	if msg.Handle == f.failHandle {
		return errors.New("store unavailable")
	}
	return nil
}

func record(t *testing.T, id, handle string) events.SQSMessage {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{Handle: handle, Version: queue.MessageVersion})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestProcessRecordsReportsOnlyRetryableFailures(t *testing.T) {
	records := []events.SQSMessage{
		record(t, "ok", "h1"),
		record(t, "retry", "h2"),
		{MessageId: "garbage", Body: "{not-json"},
	}

	resp := processRecords(context.Background(), fakeProcessor{failHandle: "h2"}, records)

	if len(resp.BatchItemFailures) != 1 {
		t.Fatalf("expected one failure, got %+v", resp.BatchItemFailures)
	}
	if resp.BatchItemFailures[0].ItemIdentifier != "retry" {
		t.Fatalf("unexpected failure %+v", resp.BatchItemFailures[0])
	}
}
