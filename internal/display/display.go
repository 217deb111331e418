// Package display renders a weather-at-location record. Rendering is pure:
// no state, no I/O beyond the writer it is given.
package display

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
)

// CelsiusUnit is the unit shown next to every temperature.
const CelsiusUnit = "°C"

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ErrNonFiniteTemperature rejects readings that cannot be displayed.
var ErrNonFiniteTemperature = errors.New("temperature is not a finite number")

// WeatherAtLocation is the view model a display is rendered from.
type WeatherAtLocation struct {
	CurrentUnits Units    `json:"current_units"`
	Current      Reading  `json:"current"`
	Location     Location `json:"location"`
}

type Units struct {
	Temperature2m string `json:"temperature_2m"`
}

type Reading struct {
	Temperature2m float64 `json:"temperature_2m"`
}

type Location struct {
	Name string `json:"name"`
	Lat  string `json:"lat"`
	Lon  string `json:"lon"`
}

// New builds a view model. Callers must not pass NaN or ±Inf.
func New(name, lat, lon string, temperature float64, unit string) (WeatherAtLocation, error) {
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return WeatherAtLocation{}, ErrNonFiniteTemperature
	}
	return WeatherAtLocation{
		CurrentUnits: Units{Temperature2m: unit},
		Current:      Reading{Temperature2m: temperature},
		Location:     Location{Name: name, Lat: lat, Lon: lon},
	}, nil
}

// Coordinates returns "lat, lon" exactly as given.
func Coordinates(v WeatherAtLocation) string {
	return v.Location.Lat + ", " + v.Location.Lon
}

// Temperature rounds the reading up and appends the unit with no separator.
func Temperature(v WeatherAtLocation) string {
	return roundUp(v.Current.Temperature2m) + v.CurrentUnits.Temperature2m
}

func roundUp(t float64) string {
	c := math.Ceil(t)
	if c == 0 {
		// ceil(-0.4) is -0; show it as 0
		c = 0
	}
	return strconv.FormatFloat(c, 'f', 0, 64)
}

type fragment struct {
	Name        string
	Coordinates string
	Temperature string
}

func toFragment(v WeatherAtLocation) fragment {
	return fragment{
		Name:        v.Location.Name,
		Coordinates: Coordinates(v),
		Temperature: Temperature(v),
	}
}

// Render writes the HTML fragment for v.
func Render(w io.Writer, v WeatherAtLocation) error {
	return tmpl.ExecuteTemplate(w, "weather_display", toFragment(v))
}

// HTML renders v for embedding in a larger template.
func HTML(v WeatherAtLocation) (template.HTML, error) {
	var b strings.Builder
	if err := Render(&b, v); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// RenderText writes v as plain text lines for terminals.
func RenderText(w io.Writer, v WeatherAtLocation) error {
	f := toFragment(v)
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", f.Name, f.Coordinates, f.Temperature)
	return err
}
