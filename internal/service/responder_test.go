package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dumu-tech/wa-relay/internal/core"
)

type fakeSecrets struct {
	secrets map[string]string
}

func (f *fakeSecrets) Get(_ context.Context, name string) (string, error) {
	if v, ok := f.secrets[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

type fakeProcessor struct {
	prompts []string
	reply   string
}

func (f *fakeProcessor) GenerateReply(_ context.Context, prompt string) string {
	f.prompts = append(f.prompts, prompt)
	if f.reply != "" {
		return f.reply
	}
	return "You said: " + prompt
}

type sentReply struct {
	to        string
	body      string
	replyToID string
}

type fakeSender struct {
	token         string
	phoneNumberID string
	sent          []sentReply
	fail          bool
}

func (f *fakeSender) SendText(_ context.Context, to, body string, _ bool) core.SendResult {
	return f.record(to, body, "")
}

func (f *fakeSender) SendReply(_ context.Context, to, body, replyToID string, _ bool) core.SendResult {
	return f.record(to, body, replyToID)
}

func (f *fakeSender) record(to, body, replyToID string) core.SendResult {
	if f.fail {
		return core.SendResult{StatusCode: 500, Error: "boom"}
	}
	f.sent = append(f.sent, sentReply{to: to, body: body, replyToID: replyToID})
	return core.SendResult{Success: true, MessageID: "wamid.sent"}
}

type responderFixture struct {
	svc       *Responder
	processor *fakeProcessor
	sender    *fakeSender
}

func newResponderFixture(secrets map[string]string) *responderFixture {
	f := &responderFixture{
		processor: &fakeProcessor{},
		sender:    &fakeSender{},
	}
	factory := func(token, phoneNumberID string) core.TextResponder {
		f.sender.token = token
		f.sender.phoneNumberID = phoneNumberID
		return f.sender
	}
	f.svc = NewResponder(&fakeSecrets{secrets: secrets}, f.processor, factory, "wa-token", discardLogger())
	return f
}

func textRecord(from, body string) core.QueueRecord {
	return core.QueueRecord{
		ID:      "1-0",
		Sender:  from,
		DedupID: "notif-1",
		Payload: textPayload(from, body),
	}
}

func TestResponderRepliesToTextViaProcessor(t *testing.T) {
	f := newResponderFixture(map[string]string{"wa-token": "tok-abc"})
	f.processor.reply = "Hi! How can I help?"

	f.svc.HandleRecord(context.Background(), textRecord("15551234567", "hello"))

	if len(f.processor.prompts) != 1 || f.processor.prompts[0] != "hello" {
		t.Errorf("processor prompts = %v, want [hello]", f.processor.prompts)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("sent %d replies, want 1", len(f.sender.sent))
	}
	reply := f.sender.sent[0]
	if reply.to != "15551234567" {
		t.Errorf("to = %q", reply.to)
	}
	if reply.body != "Hi! How can I help?" {
		t.Errorf("body = %q", reply.body)
	}
	if reply.replyToID != "wamid.in1" {
		t.Errorf("replyToID = %q, want original message id", reply.replyToID)
	}
	if f.sender.token != "tok-abc" {
		t.Errorf("responder token = %q, want secret value", f.sender.token)
	}
	if f.sender.phoneNumberID != "1098765" {
		t.Errorf("responder phone number id = %q, want value from payload metadata", f.sender.phoneNumberID)
	}
}

func TestResponderUnsupportedTypesGetFixedReply(t *testing.T) {
	for rawType, kind := range map[string]string{
		"image":       "image",
		"sticker":     "sticker",
		"interactive": "quick_reply",
		"order":       "unknown",
	} {
		t.Run(rawType, func(t *testing.T) {
			f := newResponderFixture(map[string]string{"wa-token": "tok"})

			payload := json.RawMessage(fmt.Sprintf(`{
				"object": "whatsapp_business_account",
				"entry": [{"changes": [{"value": {
					"metadata": {"phone_number_id": "1098765"},
					"messages": [{"from": "1555", "id": "wamid.m", "type": "%s"}]
				}}]}]
			}`, rawType))
			f.svc.HandleRecord(context.Background(), core.QueueRecord{ID: "1-0", Payload: payload})

			if len(f.processor.prompts) != 0 {
				t.Error("processor must not be invoked for non-text messages")
			}
			if len(f.sender.sent) != 1 {
				t.Fatalf("sent %d replies, want 1", len(f.sender.sent))
			}
			want := fmt.Sprintf("message type '%s' is currently not supported.", kind)
			if f.sender.sent[0].body != want {
				t.Errorf("body = %q, want %q", f.sender.sent[0].body, want)
			}
		})
	}
}

func TestResponderSkips(t *testing.T) {
	tests := []struct {
		name    string
		rec     core.QueueRecord
		secrets map[string]string
	}{
		{
			"unparseable payload",
			core.QueueRecord{ID: "1-0", Payload: json.RawMessage(`not json`)},
			map[string]string{"wa-token": "tok"},
		},
		{
			"invalid envelope",
			core.QueueRecord{ID: "1-0", Payload: json.RawMessage(`{"object": "other"}`)},
			map[string]string{"wa-token": "tok"},
		},
		{
			"missing token",
			textRecord("1555", "hi"),
			map[string]string{},
		},
		{
			"missing phone number id",
			core.QueueRecord{ID: "1-0", Payload: json.RawMessage(
				`{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {
					"messages": [{"from": "1555", "id": "wamid.m", "type": "text", "text": {"body": "hi"}}]
				}}]}]}`)},
			map[string]string{"wa-token": "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResponderFixture(tt.secrets)
			f.svc.HandleRecord(context.Background(), tt.rec)
			if len(f.sender.sent) != 0 {
				t.Errorf("sent %d replies, want 0", len(f.sender.sent))
			}
		})
	}
}

func TestResponderSendFailureDoesNotPanic(t *testing.T) {
	f := newResponderFixture(map[string]string{"wa-token": "tok"})
	f.sender.fail = true

	// Send failure is logged only; processing of the batch continues.
	f.svc.HandleRecord(context.Background(), textRecord("1555", "hi"))
}
