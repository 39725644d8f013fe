// Package matcher correlates sent and received bridge events by GUID.
//
// Matching is pure identifier-set intersection. Whether a matched pair also
// agrees on its route label is reported separately as RouteConsistent and
// never folded into Matched.
package matcher

import (
	"errors"
	"fmt"

	apperrors "github.com/chainsafe/bridge-analytics/pkg/app/errors"
)

// ErrDuplicateGUID is wrapped when RejectDuplicates meets a repeated GUID.
var ErrDuplicateGUID = errors.New("duplicate guid")

// Keyed is one event reduced to its correlation key and route label.
type Keyed struct {
	GUID  string
	Route string
}

// Policy decides what happens when a GUID repeats within one stream.
type Policy int

const (
	// LastWriteWins keeps the last record per GUID; counts are per distinct GUID.
	LastWriteWins Policy = iota
	// CollectAll keeps every occurrence; counts are per event and each sent
	// occurrence can be paired with at most one received occurrence.
	CollectAll
	// RejectDuplicates fails the match on the first repeated GUID.
	RejectDuplicates
)

func (p Policy) String() string {
	switch p {
	case CollectAll:
		return "collect_all"
	case RejectDuplicates:
		return "reject"
	default:
		return "last_write_wins"
	}
}

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "last_write_wins":
		return LastWriteWins, nil
	case "collect_all":
		return CollectAll, nil
	case "reject":
		return RejectDuplicates, nil
	default:
		return LastWriteWins, fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Result summarises a match between two streams.
type Result struct {
	Policy            Policy
	SentCount         int
	ReceivedCount     int
	Matched           int
	RouteConsistent   int
	DuplicateSent     int
	DuplicateReceived int
	// MissingGUIDSent and MissingGUIDReceived count events without an
	// identifier; they take no part in any count above.
	MissingGUIDSent     int
	MissingGUIDReceived int
	// MatchRate is Matched / max(SentCount, 1) as a percentage.
	MatchRate float64
}

// Match intersects the GUIDs of sent and received under policy. Events with
// an empty GUID are excluded from both streams and tallied.
func Match(sent, received []Keyed, policy Policy) (Result, error) {
	var (
		res Result
		err error
	)
	sent, missingSent := withGUID(sent)
	received, missingReceived := withGUID(received)

	switch policy {
	case CollectAll:
		res = matchAll(sent, received)
	case LastWriteWins, RejectDuplicates:
		res, err = matchLatest(sent, received, policy == RejectDuplicates)
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("unknown duplicate policy %d", policy)
	}

	res.Policy = policy
	res.MissingGUIDSent = missingSent
	res.MissingGUIDReceived = missingReceived
	res.MatchRate = float64(res.Matched) / float64(max(res.SentCount, 1)) * 100
	return res, nil
}

func withGUID(events []Keyed) ([]Keyed, int) {
	kept := make([]Keyed, 0, len(events))
	for _, ev := range events {
		if ev.GUID != "" {
			kept = append(kept, ev)
		}
	}
	return kept, len(events) - len(kept)
}

func matchLatest(sent, received []Keyed, reject bool) (Result, error) {
	sentRoutes, sentDupes, err := index(sent, "sent", reject)
	if err != nil {
		return Result{}, err
	}
	recvRoutes, recvDupes, err := index(received, "received", reject)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SentCount:         len(sentRoutes),
		ReceivedCount:     len(recvRoutes),
		DuplicateSent:     sentDupes,
		DuplicateReceived: recvDupes,
	}
	for guid, sentRoute := range sentRoutes {
		recvRoute, ok := recvRoutes[guid]
		if !ok {
			continue
		}
		res.Matched++
		if sentRoute == recvRoute {
			res.RouteConsistent++
		}
	}
	return res, nil
}

func index(events []Keyed, stream string, reject bool) (map[string]string, int, error) {
	routes := make(map[string]string, len(events))
	dupes := 0
	for _, ev := range events {
		if _, seen := routes[ev.GUID]; seen {
			if reject {
				return nil, 0, apperrors.ConflictError(
					fmt.Errorf("%w %q in %s stream", ErrDuplicateGUID, ev.GUID, stream),
					"duplicate GUID",
				)
			}
			dupes++
		}
		routes[ev.GUID] = ev.Route
	}
	return routes, dupes, nil
}

func matchAll(sent, received []Keyed) Result {
	sentRoutes, sentDupes := group(sent)
	recvRoutes, recvDupes := group(received)

	res := Result{
		SentCount:         len(sent),
		ReceivedCount:     len(received),
		DuplicateSent:     sentDupes,
		DuplicateReceived: recvDupes,
	}
	for guid, sentLabels := range sentRoutes {
		recvLabels, ok := recvRoutes[guid]
		if !ok {
			continue
		}
		res.Matched += min(len(sentLabels), len(recvLabels))
		res.RouteConsistent += commonLabels(sentLabels, recvLabels)
	}
	return res
}

func group(events []Keyed) (map[string][]string, int) {
	routes := make(map[string][]string, len(events))
	dupes := 0
	for _, ev := range events {
		if _, seen := routes[ev.GUID]; seen {
			dupes++
		}
		routes[ev.GUID] = append(routes[ev.GUID], ev.Route)
	}
	return routes, dupes
}

// commonLabels is the size of the multiset intersection of a and b.
func commonLabels(a, b []string) int {
	counts := make(map[string]int, len(a))
	for _, l := range a {
		counts[l]++
	}
	n := 0
	for _, l := range b {
		if counts[l] > 0 {
			counts[l]--
			n++
		}
	}
	return n
}
