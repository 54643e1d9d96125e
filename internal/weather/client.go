package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/config"
)

// Client proxies the OpenWeatherMap API. Provider failures never surface to
// callers: after bounded retries the client serves a canned fallback payload
// so the dashboard always renders something.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	defaultCity string
	logger      *zap.Logger
	now         func() time.Time
}

func NewClient(cfg *config.WeatherConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		defaultCity: cfg.DefaultCity,
		logger:      logger,
		now:         time.Now,
	}
}

func (c *Client) DefaultCity() string { return c.defaultCity }

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
		Pressure int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []owmCondition `json:"weather"`
}

type owmForecastResponse struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []owmForecastItem `json:"list"`
}

type owmForecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []owmCondition `json:"weather"`
}

func (c *Client) CurrentWeather(ctx context.Context, city string) *Current {
	if city == "" {
		city = c.defaultCity
	}

	var resp owmCurrentResponse
	if err := c.fetch(ctx, "/weather", city, &resp); err != nil {
		c.logger.Warn("falling back to canned current weather",
			zap.String("city", city), zap.Error(err))
		return c.fallbackCurrent(city)
	}
	if len(resp.Weather) == 0 {
		return c.fallbackCurrent(city)
	}

	return &Current{
		City:        resp.Name,
		Country:     resp.Sys.Country,
		Temperature: int(math.Round(resp.Main.Temp)),
		Condition:   resp.Weather[0].Main,
		Description: resp.Weather[0].Description,
		Humidity:    resp.Main.Humidity,
		WindSpeed:   resp.Wind.Speed,
		Pressure:    resp.Main.Pressure,
		Icon:        resp.Weather[0].Icon,
		UpdatedAt:   c.now().UTC(),
	}
}

func (c *Client) WeeklyForecast(ctx context.Context, city string) *Forecast {
	if city == "" {
		city = c.defaultCity
	}

	var resp owmForecastResponse
	if err := c.fetch(ctx, "/forecast", city, &resp); err != nil {
		c.logger.Warn("falling back to canned forecast",
			zap.String("city", city), zap.Error(err))
		return c.fallbackForecast(city)
	}

	return &Forecast{
		City:      resp.City.Name,
		Country:   resp.City.Country,
		Forecasts: groupForecastsByDay(resp.List),
	}
}

// fetch issues the provider request with bounded exponential backoff.
// 5xx and transport errors are retried; anything else fails immediately.
func (c *Client) fetch(ctx context.Context, path, city string, out any) error {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	endpoint := c.baseURL + path + "?" + q.Encode()

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("provider returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return json.Unmarshal(body, out)
	})
}

// groupForecastsByDay collapses the provider's 3-hour slots into at most 7
// daily summaries, in chronological order.
func groupForecastsByDay(items []owmForecastItem) []DailyForecast {
	type bucket struct {
		temps        []float64
		conditions   []string
		descriptions []string
		humidity     []int
		windSpeed    []float64
		icons        []string
	}

	var order []string
	buckets := make(map[string]*bucket)

	for _, item := range items {
		if len(item.Weather) == 0 {
			continue
		}
		date := time.Unix(item.Dt, 0).UTC().Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
			order = append(order, date)
		}
		b.temps = append(b.temps, item.Main.Temp)
		b.conditions = append(b.conditions, item.Weather[0].Main)
		b.descriptions = append(b.descriptions, item.Weather[0].Description)
		b.humidity = append(b.humidity, item.Main.Humidity)
		b.windSpeed = append(b.windSpeed, item.Wind.Speed)
		b.icons = append(b.icons, item.Weather[0].Icon)
	}

	if len(order) > 7 {
		order = order[:7]
	}

	out := make([]DailyForecast, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		day, _ := time.Parse("2006-01-02", date)

		minT, maxT, sumT := b.temps[0], b.temps[0], 0.0
		for _, t := range b.temps {
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
			sumT += t
		}
		sumH := 0
		for _, h := range b.humidity {
			sumH += h
		}
		sumW := 0.0
		for _, w := range b.windSpeed {
			sumW += w
		}

		out = append(out, DailyForecast{
			Date:        date,
			DayName:     day.Weekday().String(),
			MinTemp:     int(math.Round(minT)),
			MaxTemp:     int(math.Round(maxT)),
			AvgTemp:     int(math.Round(sumT / float64(len(b.temps)))),
			Condition:   mostFrequent(b.conditions),
			Description: mostFrequent(b.descriptions),
			Humidity:    int(math.Round(float64(sumH) / float64(len(b.humidity)))),
			WindSpeed:   math.Round(sumW / float64(len(b.windSpeed))),
			Icon:        mostFrequent(b.icons),
		})
	}
	return out
}

func mostFrequent(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func (c *Client) fallbackCurrent(city string) *Current {
	return &Current{
		City:        city,
		Country:     "Unknown",
		Temperature: 18,
		Condition:   "Cloudy",
		Description: "partly cloudy",
		Humidity:    65,
		WindSpeed:   5,
		Pressure:    1013,
		Icon:        "02d",
		UpdatedAt:   c.now().UTC(),
		Fallback:    true,
	}
}

func (c *Client) fallbackForecast(city string) *Forecast {
	conditions := []string{"Sunny", "Cloudy", "Rainy", "Partly Cloudy", "Clear"}
	icons := []string{"01d", "02d", "10d", "03d", "01d"}

	forecasts := make([]DailyForecast, 0, 7)
	for i := 0; i < 7; i++ {
		day := c.now().UTC().AddDate(0, 0, i)
		cond := conditions[i%len(conditions)]
		forecasts = append(forecasts, DailyForecast{
			Date:        day.Format("2006-01-02"),
			DayName:     day.Weekday().String(),
			MinTemp:     16,
			MaxTemp:     24,
			AvgTemp:     20,
			Condition:   cond,
			Description: cond,
			Humidity:    70,
			WindSpeed:   5,
			Icon:        icons[i%len(icons)],
		})
	}

	return &Forecast{
		City:      city,
		Country:   "Unknown",
		Forecasts: forecasts,
		Fallback:  true,
	}
}
