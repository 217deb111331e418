package weather

import "encoding/json"

// Report is a stored weather report as returned by the report service.
// Only the fields below are read; everything else stays in Raw.
type Report struct {
	Current  CurrentReading  `json:"current"`
	Location ReportLocation  `json:"location"`
	Raw      json.RawMessage `json:"-"`
}

type CurrentReading struct {
	Temperature float64 `json:"temperature"`
}

// ReportLocation carries coordinates as strings, exactly as the upstream
// provider reports them.
type ReportLocation struct {
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

// errorBody is the shape of a non-2xx response body.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// upstreamError is the provider error object a report can contain when the
// backend stored a failed provider call.
type upstreamError struct {
	Success *bool `json:"success"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}
