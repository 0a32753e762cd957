package server

// HTTPError is the JSON error envelope returned by the unified error handler.
type HTTPError struct {
	Error string `json:"error"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateKnowledgeBaseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RefreshCron string `json:"refreshCron"`
}

type KnowledgeBaseResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	RefreshCron     string `json:"refreshCron,omitempty"`
	LastGeneratedAt string `json:"lastGeneratedAt,omitempty"`
}

type GenerateRequest struct {
	BrandVoiceExample string `json:"brandVoiceExample"`
	AdditionalNotes   string `json:"additionalNotes"`
}

type GenerateResponse struct {
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
}

// StatusEvent is one server-sent status snapshot. Error is present only for
// failed jobs.
type StatusEvent struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
