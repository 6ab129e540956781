package installerhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// maxBodySize is the maximum accepted request body (64KB).
const maxBodySize = 64 * 1024

// errUnsupportedBody is returned for body encodings other than JSON and forms.
var errUnsupportedBody = errors.New("unsupported request body")

// bodyParams decodes a JSON object or url-encoded form body into string
// values. An empty body yields no values.
func bodyParams(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return map[string]string{}, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(raw) == 0 {
		return map[string]string{}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json", "":
		return jsonParams(raw)
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		out := make(map[string]string, len(values))
		for k := range values {
			out[k] = values.Get(k)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedBody, mediaType)
	}
}

func jsonParams(raw []byte) (map[string]string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			out[k] = n.String()
		}
	}
	return out, nil
}

// queryOrBody returns the named parameters, taking the query string first and
// the body second.
func queryOrBody(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	query := r.URL.Query()
	out := make(map[string]string, len(names))

	missing := false
	for _, name := range names {
		if v := query.Get(name); v != "" {
			out[name] = v
		} else {
			missing = true
		}
	}
	if !missing {
		return out, nil
	}

	body, err := bodyParams(w, r)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if out[name] == "" && body[name] != "" {
			out[name] = body[name]
		}
	}
	return out, nil
}
