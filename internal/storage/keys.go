package storage

import (
	"fmt"
	"strings"

	"github.com/yndnr/starledger/internal/core/domain"
)

// Key layout of the history store:
//
//	h/<session>                                  head (last date, game name, commit count)
//	s/<session>                                  last committed snapshot (snapshot codec)
//	d/<session>/<date>                           committed date marker
//	p/<session>                                  date of the commit being written
//	e/<session>/<date>/<fingerprint>             event JSON
//	t/<session>/<category>/<subject>/<date>      series row JSON
//
// Dates are written as offset fixed-width decimals so that key order is
// date order, including dates before the epoch.
const (
	prefixHead     = "h/"
	prefixSnapshot = "s/"
	prefixDate     = "d/"
	prefixPending  = "p/"
	prefixEvent    = "e/"
	prefixSeries   = "t/"
)

const dateOffset = int64(1) << 31

func dateKey(d domain.GameDate) string {
	return fmt.Sprintf("%010d", int64(d)+dateOffset)
}

func headKey(session string) []byte     { return []byte(prefixHead + session) }
func snapshotKey(session string) []byte { return []byte(prefixSnapshot + session) }
func pendingKey(session string) []byte  { return []byte(prefixPending + session) }

func dateMarkerKey(session string, d domain.GameDate) []byte {
	return []byte(prefixDate + session + "/" + dateKey(d))
}

func eventKey(session string, ev *domain.HistoryEvent) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%016x", prefixEvent, session, dateKey(ev.Date), ev.Fingerprint()))
}

func eventPrefix(session string) []byte {
	return []byte(prefixEvent + session + "/")
}

func seriesKey(session string, row *domain.SeriesRow) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%020d/%s", prefixSeries, session, row.Category, row.SubjectID, dateKey(row.Date)))
}

func seriesPrefix(session string, cat domain.Category) []byte {
	if cat == "" {
		return []byte(prefixSeries + session + "/")
	}
	return []byte(prefixSeries + session + "/" + string(cat) + "/")
}

// validSession reports whether a session name can be used as a key
// segment.
func validSession(session string) error {
	if session == "" || strings.ContainsAny(session, "/\x00") {
		return domain.ErrInvalidArgument.WithDetailsf("invalid session name %q", session)
	}
	return nil
}
