package dto

type FeedbackRequest struct {
	SessionID      string  `json:"sessionId"`
	MessageContent string  `json:"messageContent"`
	FeedbackType   string  `json:"feedbackType" validate:"required,oneof=positive negative"`
	Comment        *string `json:"comment,omitempty"`
}

type FeedbackResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}
