package httpserver

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
)

const maxBodyBytes = 1 << 20

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	account, err := s.svc.Register(r.Context(), in)
	s.metrics.ObserveRegistration(err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account.View())
}

func (s *HTTPServer) handleRegisterAndLogin(w http.ResponseWriter, r *http.Request) {
	var in accounts.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := s.svc.RegisterAndLogin(r.Context(), in)
	s.metrics.ObserveRegistration(err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.ObserveLogin(nil)
	writeJSON(w, http.StatusOK, res)
}

// handleLogin accepts either a JSON body or an OAuth2 password form.
func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	res, err := s.svc.Authenticate(r.Context(), req.Username, req.Password)
	s.metrics.ObserveLogin(err)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, account.View())
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
