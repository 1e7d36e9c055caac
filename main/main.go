package main

import (
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rawbytedev/memview"
	"github.com/rawbytedev/memview/pkg/coalesce"
	"github.com/rawbytedev/memview/pkg/compressed"
	"github.com/rawbytedev/memview/pkg/observe"
)

type Record struct {
	ID     uint64
	Kind   uint8
	Flags  uint16
	Weight float32
	Score  float64
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	go func() {
		log.Error().Err(http.ListenAndServe("localhost:6060", nil)).Msg("pprof server")
	}()
	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal().Err(err).Msg("create profile")
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	const n = 10000
	var raw []byte
	for i := range n {
		raw, err = memview.Pack(raw, Record{ID: uint64(i), Kind: uint8(i), Flags: 0x0102, Weight: 1.5, Score: float64(i) / 3})
		if err != nil {
			log.Fatal().Err(err).Msg("pack")
		}
	}
	blob, err := compressed.Compress(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("compress")
	}
	zsrc, err := compressed.NewSource(blob)
	if err != nil {
		log.Fatal().Err(err).Msg("open compressed")
	}
	metrics := observe.NewMetrics(prometheus.DefaultRegisterer)
	src := observe.Wrap(coalesce.Wrap(zsrc), "profile", metrics, log)
	v := memview.NewWithOptions(src, memview.Options{Logger: &log})

	size, err := memview.PackedSize(Record{})
	if err != nil {
		log.Fatal().Err(err).Msg("record size")
	}
	var sum float64
	for rest := v; !rest.Empty(); {
		var r Record
		if rest, err = memview.UnpackHead(rest, &r); err != nil {
			log.Fatal().Err(err).Msg("unpack")
		}
		sum += r.Score
	}
	log.Info().Int("records", n).Int("record_size", size).Float64("score_sum", sum).Msg("decoded")

	pprof.WriteHeapProfile(f)
	time.Sleep(5 * time.Minute)
}
