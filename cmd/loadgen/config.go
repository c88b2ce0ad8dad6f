package main

type config struct {
	BaseURL    string   `mapstructure:"base_url"`
	Interval   string   `mapstructure:"interval"`
	Requests   int      `mapstructure:"requests"`
	IDsPerCall int      `mapstructure:"ids_per_request"`
	FirstID    int64    `mapstructure:"first_id"`
	Priorities []string `mapstructure:"priorities"`
}
