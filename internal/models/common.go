package models

type APIResponse[T any] struct {
	Result  T      `json:"result"`
	Message string `json:"message,omitempty"`
}
