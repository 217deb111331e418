// Package lookup holds the state of one weather lookup form: the typed id,
// the outstanding request, and the last result.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/swelljoe/wxlookup/internal/display"
	"github.com/swelljoe/wxlookup/internal/weather"
)

// Banner messages.
const (
	MsgSuccess   = "Weather request submitted successfully!"
	MsgNotFound  = "Failed to find weather report with provided ID"
	MsgNetwork   = "Network error: Could not connect to the server"
	MsgMalformed = "Weather report is malformed"
	MsgIDMissing = "ID is required"
	MsgIDInvalid = "Invalid report ID"
)

// FieldID is the form field holding the report id.
const FieldID = "id"

// FormData is the lookup form's input state.
type FormData struct {
	ID string `json:"id"`
}

// Result is the outcome of one submit.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *weather.Report `json:"-"`
	// ReportID is the form id the submit was issued with.
	ReportID string `json:"id"`
	// Stale is set when a newer submit was issued before this one finished.
	Stale bool `json:"-"`
}

// State is a consistent snapshot of a Lookup.
type State struct {
	Form     FormData
	InFlight bool
	Result   *Result
	// Weather is set only for a successful result with data.
	Weather *display.WeatherAtLocation
}

// Lookup is one lookup form. Safe for concurrent use; the fetch runs
// without the lock held.
type Lookup struct {
	fetcher weather.Fetcher

	mu        sync.Mutex
	form      FormData
	result    *Result
	issued    uint64
	completed uint64
}

// New creates an empty lookup backed by fetcher.
func New(fetcher weather.Fetcher) *Lookup {
	return &Lookup{fetcher: fetcher}
}

// SetField updates exactly the named field. Unknown fields are ignored.
func (l *Lookup) SetField(name, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch name {
	case FieldID:
		l.form.ID = value
	}
}

// Submit runs one lookup for the current form id and returns its result.
// The result becomes the lookup's state only if no newer submit was issued
// in the meantime; a superseded result is returned but not applied.
func (l *Lookup) Submit(ctx context.Context) Result {
	seq, id := l.begin()
	res := l.fetch(ctx, id)
	res.ReportID = id
	if !l.complete(seq, res) {
		slog.Debug("discarding stale lookup result", "id", id, "seq", seq)
		res.Stale = true
	}
	return res
}

func (l *Lookup) begin() (uint64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.issued++
	l.result = nil
	return l.issued, l.form.ID
}

func (l *Lookup) complete(seq uint64, res Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.issued {
		return false
	}
	l.completed = seq
	l.result = &res
	return true
}

func (l *Lookup) fetch(ctx context.Context, id string) Result {
	if strings.TrimSpace(id) == "" {
		return Result{Message: MsgIDMissing}
	}

	report, err := l.fetcher.GetReport(ctx, id)
	if err != nil {
		return failure(err)
	}
	return Result{Success: true, Message: MsgSuccess, Data: report}
}

func failure(err error) Result {
	var statusErr *weather.StatusError
	var malformedErr *weather.MalformedError

	switch {
	case errors.As(err, &statusErr):
		if statusErr.Detail != "" {
			return Result{Message: statusErr.Detail}
		}
		return Result{Message: MsgNotFound}
	case errors.As(err, &malformedErr):
		slog.Warn("malformed weather report", "error", err)
		if malformedErr.Info != "" {
			return Result{Message: malformedErr.Info}
		}
		return Result{Message: MsgMalformed}
	case errors.Is(err, weather.ErrInvalidID):
		return Result{Message: MsgIDInvalid}
	default:
		slog.Warn("weather lookup failed", "error", err)
		return Result{Message: MsgNetwork}
	}
}

// State returns a snapshot of the form, lifecycle and result.
func (l *Lookup) State() State {
	l.mu.Lock()
	st := State{
		Form:     l.form,
		InFlight: l.issued != l.completed,
	}
	if l.result != nil {
		r := *l.result
		st.Result = &r
	}
	l.mu.Unlock()

	if st.Result != nil {
		st.Weather = ViewModel(*st.Result)
	}
	return st
}

// ViewModel maps a successful result into the display's view model.
// It returns nil for failures, missing data, or unrenderable readings.
func ViewModel(res Result) *display.WeatherAtLocation {
	if !res.Success || res.Data == nil {
		return nil
	}
	loc := res.Data.Location
	v, err := display.New(loc.Name, loc.Lat, loc.Lon, res.Data.Current.Temperature, display.CelsiusUnit)
	if err != nil {
		return nil
	}
	return &v
}
