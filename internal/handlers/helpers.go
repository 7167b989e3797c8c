package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/auth"
	"github.com/fleetops/fueltrack/internal/httpx"
)

// idParam parses the {id} path variable.
func idParam(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// mustIdentity returns the authenticated caller or writes a 401.
func mustIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "You are not logged in. Please login to get access.")
	}
	return id, ok
}

// notFoundOr500 maps gorm.ErrRecordNotFound to 404 and everything else to 500.
func notFoundOr500(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.Error(w, http.StatusNotFound, notFoundMsg)
		return
	}
	httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
}

// queryDate parses an optional YYYY-MM-DD or RFC3339 query parameter.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, errors.New("invalid date for " + key)
}

// queryUint parses an optional positive-integer query parameter.
func queryUint(r *http.Request, key string) (*uint, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	u := uint(v)
	return &u, nil
}

// pageParams returns 1-indexed page and limit with defaults and a cap.
func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 50
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	return page, limit
}

// updatableFields filters a decoded request body down to the allowed column
// set, so callers cannot touch keys, timestamps or other records' ids. The
// returned map doubles as the audit new-value snapshot (intentionally a
// partial echo of the request).
func updatableFields(body map[string]any, allowed ...string) map[string]any {
	out := map[string]any{}
	for _, k := range allowed {
		if v, ok := body[k]; ok {
			out[k] = v
		}
	}
	return out
}
