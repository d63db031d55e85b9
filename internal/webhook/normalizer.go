package webhook

import "encoding/json"

// Kind classifies an inbound message. The first three values describe
// envelopes that carry no usable message at all; the rest map the
// platform's type tags onto a closed set.
type Kind string

const (
	KindInvalid    Kind = "invalid"
	KindNoMessages Kind = "no_messages"
	KindMalformed  Kind = "malformed"

	KindText       Kind = "text"
	KindImage      Kind = "image"
	KindVideo      Kind = "video"
	KindAudio      Kind = "audio"
	KindDocument   Kind = "document"
	KindContact    Kind = "contact"
	KindLocation   Kind = "location"
	KindReaction   Kind = "reaction"
	KindSticker    Kind = "sticker"
	KindQuickReply Kind = "quick_reply"
	KindUnknown    Kind = "unknown"
)

// Sender holds best-effort sender identity extracted from an envelope
type Sender struct {
	Phone string
	Name  string
	WaID  string
}

// Content is the normalized view of a message: common fields plus the
// type-specific payload selected by Kind. Fields outside the message's
// kind are left at their zero value.
type Content struct {
	Kind      Kind
	ID        string
	Timestamp string
	From      string

	// text
	Body string

	// image, video, audio, document, sticker
	MediaID  string
	MimeType string
	SHA256   string
	Caption  string

	// location
	Latitude  float64
	Longitude float64
	Name      string
	Address   string

	// contacts (shared as-is, shape varies per client)
	Contacts json.RawMessage

	// reaction
	Emoji    string
	ReactsTo string

	// button
	ButtonText    string
	ButtonPayload string
	Context       *MessageContext

	// unknown
	Errors []APIError
}

// value walks entry[0].changes[0].value. The second return is false when
// any step of the path is missing, which callers surface as malformed or
// absent rather than a fault.
func value(e *Envelope) (*Value, bool) {
	if len(e.Entry) == 0 || len(e.Entry[0].Changes) == 0 {
		return nil, false
	}
	return &e.Entry[0].Changes[0].Value, true
}

// firstMessage returns value.messages[0]. The distinction between an absent
// list and a present-but-empty one matters to Classify, so both outcomes
// are reported separately.
func firstMessage(v *Value) (*Message, bool) {
	if len(v.Messages) == 0 {
		return nil, false
	}
	return &v.Messages[0], true
}

// typeMapping translates the platform's raw type tags into Kinds
var typeMapping = map[string]Kind{
	"text":        KindText,
	"image":       KindImage,
	"video":       KindVideo,
	"audio":       KindAudio,
	"document":    KindDocument,
	"contacts":    KindContact,
	"location":    KindLocation,
	"reaction":    KindReaction,
	"sticker":     KindSticker,
	"interactive": KindQuickReply,
}

// Classify determines the kind of the envelope's first message. It never
// fails: structural problems come back as KindInvalid, KindNoMessages or
// KindMalformed, and unrecognized type tags as KindUnknown.
func Classify(e *Envelope) Kind {
	if !e.Valid() {
		return KindInvalid
	}
	v, ok := value(e)
	if !ok {
		return KindMalformed
	}
	if v.Messages == nil {
		return KindNoMessages
	}
	msg, ok := firstMessage(v)
	if !ok {
		return KindMalformed
	}
	if kind, ok := typeMapping[msg.Type]; ok {
		return kind
	}
	return KindUnknown
}

// SenderInfo extracts the sender's phone number, and when the contacts block
// is present, their display name and WhatsApp id. The second return is false
// when the envelope is invalid or structurally broken.
func SenderInfo(e *Envelope) (Sender, bool) {
	if !e.Valid() {
		return Sender{}, false
	}
	v, ok := value(e)
	if !ok {
		return Sender{}, false
	}

	var info Sender
	if v.Messages != nil {
		msg, ok := firstMessage(v)
		if !ok {
			return Sender{}, false
		}
		info.Phone = msg.From
	}
	if v.Contacts != nil {
		if len(v.Contacts) == 0 {
			return Sender{}, false
		}
		info.Name = v.Contacts[0].Profile.Name
		info.WaID = v.Contacts[0].WaID
	}
	return info, true
}

// MessageContent extracts the first message's common fields plus the payload
// matching its kind. The second return is false when the envelope is invalid
// or carries no message.
func MessageContent(e *Envelope) (*Content, bool) {
	if !e.Valid() {
		return nil, false
	}
	v, ok := value(e)
	if !ok {
		return nil, false
	}
	msg, ok := firstMessage(v)
	if !ok {
		return nil, false
	}

	kind := KindUnknown
	if k, ok := typeMapping[msg.Type]; ok {
		kind = k
	}

	content := &Content{
		Kind:      kind,
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
		From:      msg.From,
	}

	switch kind {
	case KindText:
		if msg.Text != nil {
			content.Body = msg.Text.Body
		}
	case KindImage, KindVideo, KindAudio, KindDocument:
		if media := mediaFor(msg, kind); media != nil {
			content.MediaID = media.ID
			content.MimeType = media.MimeType
			content.SHA256 = media.SHA256
			content.Caption = media.Caption
		}
	case KindSticker:
		if msg.Sticker != nil {
			content.MediaID = msg.Sticker.ID
			content.MimeType = msg.Sticker.MimeType
			content.SHA256 = msg.Sticker.SHA256
		}
	case KindLocation:
		if msg.Location != nil {
			content.Latitude = msg.Location.Latitude
			content.Longitude = msg.Location.Longitude
			content.Name = msg.Location.Name
			content.Address = msg.Location.Address
		}
	case KindContact:
		content.Contacts = msg.Contacts
	case KindReaction:
		if msg.Reaction != nil {
			content.Emoji = msg.Reaction.Emoji
			content.ReactsTo = msg.Reaction.MessageID
		}
	case KindQuickReply:
		// Interactive replies surface through the common fields only; the
		// nested interactive block shape differs per reply style.
	case KindUnknown:
		content.Errors = msg.Errors
	}

	if msg.Type == "button" && msg.Button != nil {
		content.ButtonText = msg.Button.Text
		content.ButtonPayload = msg.Button.Payload
		content.Context = msg.Context
	}

	return content, true
}

func mediaFor(msg *Message, kind Kind) *Media {
	switch kind {
	case KindImage:
		return msg.Image
	case KindVideo:
		return msg.Video
	case KindAudio:
		return msg.Audio
	case KindDocument:
		return msg.Document
	}
	return nil
}

// PhoneNumberID extracts the business-side phone number id from the
// envelope's metadata block. The second return is false on any structural
// mismatch.
func PhoneNumberID(e *Envelope) (string, bool) {
	if !e.Valid() {
		return "", false
	}
	v, ok := value(e)
	if !ok || v.Metadata == nil {
		return "", false
	}
	if v.Metadata.PhoneNumberID == "" {
		return "", false
	}
	return v.Metadata.PhoneNumberID, true
}
