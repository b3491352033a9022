package response

import (
	"encoding/json"
	"net/http"
)

// Response 成功回應的統一格式
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ResponseError 失敗回應, Data 放欄位錯誤等補充資訊
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any, headers map[string]string) {
	for k, val := range headers {
		w.Header().Set(k, val)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func SuccessJSON(w http.ResponseWriter, data any, headers map[string]string) {
	WriteJSON(w, http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	}, headers)
}

func CreatedJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	}, nil)
}

// ErrorJSON err 只有 4xx 會回傳給用戶端
func ErrorJSON(w http.ResponseWriter, status int, err error, message string) {
	ErrorJSONWithData(w, status, err, message, nil)
}

func ErrorJSONWithData(w http.ResponseWriter, status int, err error, message string, data any) {
	res := ResponseError{
		Code:    status,
		Message: message,
		Data:    data,
	}
	if err != nil && status < http.StatusInternalServerError {
		res.Error = err.Error()
	}
	WriteJSON(w, status, res, nil)
}
