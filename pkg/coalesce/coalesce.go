// Package coalesce collapses concurrent fetches of the same range into a
// single fetch against the wrapped source.
//
// Views cache per window, so many goroutines holding their own views of
// one region of a slow source would each pay for the read. Wrapping the
// source makes them share one in-flight fetch and its anchor.
package coalesce

import (
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/rawbytedev/memview"
)

type Source struct {
	src   memview.Source
	group singleflight.Group
}

func Wrap(src memview.Source) *Source {
	return &Source{src: src}
}

func (s *Source) Size() int { return s.src.Size() }

func (s *Source) Fetch(begin, end int) (memview.Fetched, error) {
	key := strconv.Itoa(begin) + ":" + strconv.Itoa(end)
	res, err, _ := s.group.Do(key, func() (any, error) {
		return s.src.Fetch(begin, end)
	})
	if err != nil {
		return memview.Fetched{}, err
	}
	return res.(memview.Fetched), nil
}
