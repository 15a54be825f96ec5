package http

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20 // 1 MiB, far beyond any legitimate auth payload

// decodeJSON parses a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
