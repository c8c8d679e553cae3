package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vytor/sillychess/internal/errors"
)

const maxBodyBytes = 4 << 10

// bodyField reads one string field from a JSON or form-encoded body. An
// empty body yields "".
func bodyField(r *http.Request, field string) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return "", errors.NewBadRequestError("invalid form body")
		}
		return strings.TrimSpace(r.PostForm.Get(field)), nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", errors.NewBadRequestError("failed to read request body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", errors.NewBadRequestError("invalid JSON body")
	}
	switch v := fields[field].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		return "", errors.NewValidationError(field, "must be a string")
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
