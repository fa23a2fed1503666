package external

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org"

// OpenWeather queries the OpenWeatherMap current-weather endpoint in metric units.
type OpenWeather struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewOpenWeather(baseURL, apiKey string, timeout time.Duration) *OpenWeather {
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	return &OpenWeather{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: newHTTPClient(timeout)}
}

type owmResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (o *OpenWeather) Current(ctx context.Context, location string) (*Weather, error) {
	if strings.TrimSpace(location) == "" {
		return nil, &Error{Service: "weather", Err: errors.New("location is required")}
	}
	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")

	var out owmResponse
	if err := doJSON(ctx, o.client, "weather", http.MethodGet, o.baseURL+"/data/2.5/weather?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}

	w := &Weather{
		Location:   out.Name,
		TempC:      out.Main.Temp,
		FeelsLikeC: out.Main.FeelsLike,
		Humidity:   out.Main.Humidity,
		WindSpeed:  out.Wind.Speed,
	}
	if w.Location == "" {
		w.Location = location
	}
	if len(out.Weather) > 0 {
		w.Description = out.Weather[0].Description
	}
	return w, nil
}
