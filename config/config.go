// Package config holds the configuration of the coinspace processes.
package config

import "time"

// Config is parsed by conf with the COINSPACE prefix, e.g. COINSPACE_WEB_ADDRESS.
type Config struct {
	Web     Web
	Cors    Cors
	Rate    Rate
	Log     Log
	Metrics Metrics
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:3001"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
	TrustProxy      bool          `conf:"default:false"`
}

// Cors.Origin is the frontend allowed to call the API. An empty origin disables CORS.
type Cors struct {
	Origin string `conf:"default:http://localhost:5173"`
}

// Rate bounds every client to Requests per Window.
type Rate struct {
	Requests int           `conf:"default:100"`
	Window   time.Duration `conf:"default:15m"`
}

type Log struct {
	Level  string `conf:"default:info"`
	Format string `conf:"default:text"`
}

type Metrics struct {
	Enabled bool `conf:"default:true"`
}
