package whatsapp

// TextMessage represents the outbound text message payload for the Cloud API
type TextMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Context          *struct {
		MessageID string `json:"message_id"`
	} `json:"context,omitempty"`
	Text struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// apiResponse is the subset of the Cloud API send response we read back
type apiResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}
