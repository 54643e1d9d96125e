package weather

import "time"

type Current struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature int       `json:"temperature"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Pressure    int       `json:"pressure"`
	Icon        string    `json:"icon"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Fallback    bool      `json:"fallback,omitempty"`
}

type DailyForecast struct {
	Date        string  `json:"date"`
	DayName     string  `json:"dayName"`
	MinTemp     int     `json:"minTemp"`
	MaxTemp     int     `json:"maxTemp"`
	AvgTemp     int     `json:"avgTemp"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Icon        string  `json:"icon"`
}

type Forecast struct {
	City      string          `json:"city"`
	Country   string          `json:"country"`
	Forecasts []DailyForecast `json:"forecasts"`
	Fallback  bool            `json:"fallback,omitempty"`
}
