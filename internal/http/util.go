package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errMissingUser = errors.New("user id is required")

func writeJSON(w http.ResponseWriter, status int, v any) {
	if f, ok := v.(Result[any]); ok && f.Code != ResultSuccess {
		if rec, ok := w.(*resultRecorder); ok {
			rec.failed = true
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// identity 请求身份（由网关注入的请求头）
type identity struct {
	UserID   string
	UserRole string
}

// identityFromReq reads X-User-Id / X-User-Role. A missing user id writes
// the failure envelope and returns false.
func identityFromReq(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id := identity{
		UserID:   strings.TrimSpace(r.Header.Get("X-User-Id")),
		UserRole: strings.TrimSpace(r.Header.Get("X-User-Role")),
	}
	if id.UserID == "" {
		writeJSON(w, http.StatusOK, Fail(errMissingUser.Error()))
		return id, false
	}
	return id, true
}

// pathParts splits the path after prefix into its non-empty segments.
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
