package api

import (
	"encoding/json"
	"net/http"
)

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// jsonResponse implements Response for JSON rendering
type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a JSON response with the given status.
func JSON(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// Message creates the {"message": msg} body used by every error.
func Message(status int, msg string) Response {
	return jsonResponse{status: status, body: messageBody{Message: msg}}
}

type messageBody struct {
	Message string `json:"message"`
}

// emptyResponse represents an empty HTTP response with only a status code
type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty creates a 204 No Content response.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// errorResponse carries an operation error to the error renderer.
type errorResponse struct {
	err error
}

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	info := classifyError(e.err)
	return Message(info.StatusCode, info.Message).Render(w, r)
}

// Error creates a response for err, classified by classifyError.
func Error(err error) Response {
	return errorResponse{err: err}
}
