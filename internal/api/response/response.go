package response

import (
	"encoding/json"
	"net/http"
)

// Response 所有 api 共用的外層格式
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const successMessage = "success"

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func SuccessJSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: successMessage,
		Data:    data,
	})
}

// ErrorJSON code 同時作為 http status
func ErrorJSON(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
