package exportserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// pathInt parses an http.ServeMux path value as an int64.
func pathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// queryInt parses a query parameter as an int, falling back to def when
// absent or malformed.
func queryInt(q url.Values, name string, def int) int {
	v := q.Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// decodeJSON decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
