package accesscontrol

import "encoding/json"

// ParameterLocation names where a request parameter is extracted from.
type ParameterLocation string

const (
	InPath  ParameterLocation = "path"
	InQuery ParameterLocation = "query"
	InJSON  ParameterLocation = "json"
)

// Request carries the evaluated request's identity and parameters. A
// Request belongs to a single evaluation and must not be shared across
// goroutines; the JSON body is parsed at most once per Request.
type Request struct {
	Endpoint    string
	Method      string
	PathParams  map[string]string
	QueryParams map[string]string
	Body        []byte

	bodyParsed   bool
	bodyDocument map[string]any
	bodyValid    bool
}

// jsonDocument returns the body parsed as a JSON object. ok is false when
// the body is absent, malformed, or not an object.
func (r *Request) jsonDocument() (map[string]any, bool) {
	if !r.bodyParsed {
		r.bodyParsed = true
		if len(r.Body) > 0 {
			var document map[string]any
			if err := json.Unmarshal(r.Body, &document); err == nil {
				r.bodyDocument = document
				r.bodyValid = true
			}
		}
	}
	return r.bodyDocument, r.bodyValid
}
