package weather

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed report.schema.json
var reportSchemaJSON string

// compileReportSchema builds the validator for successful report bodies.
func compileReportSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("report.schema.json", strings.NewReader(reportSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile("report.schema.json")
}

// decodeReport validates body against the schema and decodes it.
func decodeReport(schema *jsonschema.Schema, body []byte) (*Report, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &MalformedError{Err: fmt.Errorf("decode body: %w", err)}
	}

	if err := schema.Validate(raw); err != nil {
		return nil, &MalformedError{Info: upstreamInfo(body), Err: err}
	}

	var r Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, &MalformedError{Err: err}
	}
	r.Raw = json.RawMessage(body)
	return &r, nil
}

// upstreamInfo extracts the provider error message from a stored provider
// error object, e.g. {"success": false, "error": {"info": "..."}}.
func upstreamInfo(body []byte) string {
	var ue upstreamError
	if err := json.Unmarshal(body, &ue); err != nil {
		return ""
	}
	if ue.Success != nil && *ue.Success {
		return ""
	}
	return strings.TrimSpace(ue.Error.Info)
}

// parseDetail returns the string "detail" field of an error body, or "".
// Non-string details (e.g. validation error lists) are ignored.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
