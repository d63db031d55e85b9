package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dumu-tech/wa-relay/internal/core"
	"github.com/dumu-tech/wa-relay/internal/webhook"
)

// ResponderFactory builds a TextResponder bound to a bearer token and a
// business phone number id. The binding happens per record because the
// phone number id comes out of each payload's metadata.
type ResponderFactory func(token, phoneNumberID string) core.TextResponder

// Responder consumes queue records, interprets the message and sends a
// reply. Text messages go through the external processor; every other kind
// gets a fixed "not supported" reply.
type Responder struct {
	secrets      core.SecretStore
	processor    core.Processor
	newResponder ResponderFactory
	secretName   string
	log          *slog.Logger
}

// NewResponder creates the reply service
func NewResponder(secrets core.SecretStore, processor core.Processor, factory ResponderFactory, secretName string, log *slog.Logger) *Responder {
	return &Responder{
		secrets:      secrets,
		processor:    processor,
		newResponder: factory,
		secretName:   secretName,
		log:          log,
	}
}

// HandleRecord processes one queue record: parsed → normalized → classified
// → credential-fetched → replied, exiting early (skip) at any stage with
// missing or invalid data. Nothing here fails the batch; the caller acks
// the record regardless.
func (r *Responder) HandleRecord(ctx context.Context, rec core.QueueRecord) {
	env, err := webhook.Decode(rec.Payload)
	if err != nil {
		r.log.Error("failed to parse queue payload, skipping", "record_id", rec.ID, "error", err)
		return
	}
	if !env.Valid() {
		r.log.Warn("invalid WhatsApp webhook payload, skipping", "record_id", rec.ID)
		return
	}

	kind := webhook.Classify(env)
	sender, senderOK := webhook.SenderInfo(env)
	content, contentOK := webhook.MessageContent(env)
	if !senderOK || sender.Phone == "" || !contentOK {
		r.log.Error("could not extract sender or content, skipping", "record_id", rec.ID, "kind", kind)
		return
	}

	r.log.Info("processing message",
		"record_id", rec.ID,
		"kind", kind,
		"sender", sender.Phone,
		"name", sender.Name)

	token, err := r.secrets.Get(ctx, r.secretName)
	if err != nil {
		r.log.Error("cannot send response, token not available", "record_id", rec.ID, "error", err)
		return
	}

	phoneNumberID, ok := webhook.PhoneNumberID(env)
	if !ok {
		r.log.Error("could not extract phone number id, skipping", "record_id", rec.ID)
		return
	}

	responder := r.newResponder(token, phoneNumberID)

	var reply string
	if kind == webhook.KindText {
		reply = r.processor.GenerateReply(ctx, content.Body)
	} else {
		reply = fmt.Sprintf("message type '%s' is currently not supported.", kind)
	}

	result := responder.SendReply(ctx, sender.Phone, reply, content.ID, false)
	if !result.Success {
		r.log.Error("failed to send reply", "record_id", rec.ID, "sender", sender.Phone, "error", result.Error)
		return
	}
	r.log.Info("reply sent", "record_id", rec.ID, "sender", sender.Phone, "message_id", result.MessageID)
}
