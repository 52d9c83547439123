package auth

// DefaultUserID owns every plan when authentication is off.
const DefaultUserID = "default"

// DevUserID is issued when POST /v1/auth/dev is called without a user_id.
const DevUserID = "dev-user"

const maxUserIDLength = 128

// DevAuthRequest: запрос на dev-авторизацию
type DevAuthRequest struct {
	UserID string `json:"user_id"`
}

// DevAuthResponse: ответ на dev-авторизацию
type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
