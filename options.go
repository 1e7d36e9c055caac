package memview

import "github.com/rs/zerolog"

type Options struct {
	// Logger receives a debug event per fetch. Nil disables logging.
	Logger *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}
