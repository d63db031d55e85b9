package webhook

import "encoding/json"

// ObjectSentinel is the object field value of every WhatsApp Business
// Platform webhook delivery.
const ObjectSentinel = "whatsapp_business_account"

// Envelope represents the full inbound webhook document. Only entry[0] is
// ever consulted; later entries are carried but ignored, matching the
// platform's one-entry-per-delivery behaviour.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one element of the envelope's entry array
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps the value block that holds metadata, contacts and messages
type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

// Value is the payload of a change
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         *Metadata `json:"metadata,omitempty"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

// Metadata identifies the business-side phone number
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact carries the sender's profile as reported by the platform
type Contact struct {
	Profile Profile `json:"profile"`
	WaID    string  `json:"wa_id"`
}

// Profile holds the sender's display name
type Profile struct {
	Name string `json:"name"`
}

// Message is one entry under value.messages. Exactly one of the type-keyed
// payload fields is populated, selected by Type.
type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`

	Text     *Text           `json:"text,omitempty"`
	Image    *Media          `json:"image,omitempty"`
	Video    *Media          `json:"video,omitempty"`
	Audio    *Media          `json:"audio,omitempty"`
	Document *Media          `json:"document,omitempty"`
	Sticker  *Media          `json:"sticker,omitempty"`
	Location *Location       `json:"location,omitempty"`
	Contacts json.RawMessage `json:"contacts,omitempty"`
	Reaction *Reaction       `json:"reaction,omitempty"`
	Button   *Button         `json:"button,omitempty"`
	Context  *MessageContext `json:"context,omitempty"`
	Errors   []APIError      `json:"errors,omitempty"`
}

// Text is the payload of a text message
type Text struct {
	Body string `json:"body"`
}

// Media is the shared payload of image, video, audio, document and sticker
// messages
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption,omitempty"`
}

// Location is the payload of a location share
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// Reaction references an earlier message with an emoji
type Reaction struct {
	Emoji     string `json:"emoji"`
	MessageID string `json:"message_id"`
}

// Button is the payload of a template button press
type Button struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// MessageContext links a message to the one it replies to
type MessageContext struct {
	From      string `json:"from,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// APIError is one element of the errors array the platform attaches to
// undeliverable or unsupported messages
type APIError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
	Details string `json:"error_data,omitempty"`
}

// Decode parses raw bytes into an Envelope. It is the only function in this
// package that can fail; everything downstream of a successful decode is
// total.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Valid reports whether the envelope looks like a WhatsApp Business webhook:
// the object sentinel matches and an entry array was present. A present but
// empty entry array still counts as valid; deeper checks classify it as
// malformed instead.
func (e *Envelope) Valid() bool {
	return e != nil && e.Object == ObjectSentinel && e.Entry != nil
}
