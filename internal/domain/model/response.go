package model

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	StatusCode int         `json:"statusCode"`
}

// SuccessResponse builds a success envelope.
func SuccessResponse(message string, data interface{}, statusCode int) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data, StatusCode: statusCode}
}

// FailureResponse builds a failure envelope with a nil payload.
func FailureResponse(message string, statusCode int) APIResponse {
	return APIResponse{Success: false, Message: message, Data: nil, StatusCode: statusCode}
}
