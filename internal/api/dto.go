package api

// StartSessionRequest is the request body for starting a practice or
// test session.
type StartSessionRequest struct {
	DeckID string `json:"deck_id" example:"x1U7flashcards"`
}

// AnswerRequest is the request body for advance/answer calls.
type AnswerRequest struct {
	Correct bool `json:"correct" example:"true"`
}

// MediaUploadResponse is returned after a successful image upload.
type MediaUploadResponse struct {
	Filename string `json:"filename" example:"hV9s0q2b.png"`
	Size     int64  `json:"size" example:"12345"`
	URL      string `json:"url" example:"/media/hV9s0q2b.png"`
}
