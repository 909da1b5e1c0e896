package request

type UploadDocumentRequest struct {
	Filename string `json:"filename" binding:"required"`
	RawText  string `json:"rawText" binding:"required"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required"`
	TopK      int    `json:"topK"`
}
