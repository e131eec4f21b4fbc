package helpers

import (
	"encoding/json"
	"mime"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	JSON(w, status, errorResponse{Error: errMsg})
}

// Bind заполняет dst из JSON-тела или из form-полей (urlencoded/multipart).
// Ключи dst задают имена полей.
func Bind(r *http.Request, dst map[string]*string) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return err
		}
		for k, p := range dst {
			*p = body[k]
		}
		return nil
	}

	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return err
		}
	} else if err := r.ParseForm(); err != nil {
		return err
	}
	for k, p := range dst {
		*p = r.FormValue(k)
	}
	return nil
}
