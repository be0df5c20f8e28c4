package config

import "testing"

func TestLoadWithoutDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONTENT_SECTIONS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without DATABASE_URL should succeed: %v", err)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.FetchTimeoutSeconds != 20 || cfg.SummaryRetries != 2 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:         "local",
			LogLevel:            "info",
			DBMinConns:          1,
			DBMaxConns:          8,
			FetchTimeoutSeconds: 20,
			FetchMaxBodyBytes:   1 << 20,
			SummaryRetries:      2,
			HTTPAddr:            ":8080",
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no database url", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "min over max", mutate: func(c *Config) { c.DBMinConns = 9 }, wantErr: true},
		{name: "zero max conns", mutate: func(c *Config) { c.DBMaxConns = 0 }, wantErr: true},
		{name: "zero fetch timeout", mutate: func(c *Config) { c.FetchTimeoutSeconds = 0 }, wantErr: true},
		{name: "tiny body limit", mutate: func(c *Config) { c.FetchMaxBodyBytes = 10 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.SummaryRetries = -1 }, wantErr: true},
		{name: "blank http addr", mutate: func(c *Config) { c.HTTPAddr = " " }, wantErr: true},
		{name: "valid sections", mutate: func(c *Config) { c.ContentSections = `[{"title":"Summary","aliases":["summary"]}]` }},
		{name: "malformed sections", mutate: func(c *Config) { c.ContentSections = `{"title":"x"}` }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCORSAllowedOriginsList(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " http://a.test ,, http://b.test , http://a.test "}

	origins := cfg.CORSAllowedOriginsList()
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "http://b.test" {
		t.Fatalf("origins = %v", origins)
	}

	if got := (&Config{}).CORSAllowedOriginsList(); len(got) != 0 {
		t.Fatalf("empty config origins = %v", got)
	}
}
