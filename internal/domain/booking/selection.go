package booking

import (
	"fmt"
	"sort"
	"strings"
)

// PreferenceTable holds the externally supplied weights. A zero (or missing)
// weight means the resource or hour is never considered.
type PreferenceTable struct {
	Resources map[string]int
	Hours     map[int]int
}

// Weights returns the resource and hour weight of a slot.
func (p PreferenceTable) Weights(s TimeSlot) (resource, hour int) {
	return p.Resources[s.ResourceID], p.Hours[s.HourID]
}

// OpenSlots lists every free slot for one day, ordered by resource id and then hour id.
func OpenSlots(resources map[string]string, hours map[int]Hour, avail AvailabilityMap) []TimeSlot {
	hourIDs := SortedHourIDs(hours)

	var out []TimeSlot
	for _, rid := range SortedResourceIDs(resources) {
		for _, hid := range hourIDs {
			if !avail.Free(rid, hid) {
				continue
			}
			h := hours[hid]
			out = append(out, TimeSlot{
				ResourceID: rid,
				HourID:     hid,
				Segment:    h.Segment,
				Label:      fmt.Sprintf("%s (%s-%s)", resources[rid], h.Begin, h.End),
			})
		}
	}
	return out
}

// SortedResourceIDs returns the resource ids in display order.
func SortedResourceIDs(resources map[string]string) []string {
	ids := make([]string, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}

func SortedHourIDs(hours map[int]Hour) []int {
	ids := make([]int, 0, len(hours))
	for id := range hours {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// lessID orders numeric ids numerically ("9" < "10") and falls back to lexical order.
func lessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// BuildCandidates filters slots by preference, pairs same-resource consecutive
// hours and ranks the result by descending score. Solo candidates are emitted
// only when no pair exists and allowSolo is set. Ties keep generation order.
func BuildCandidates(slots []TimeSlot, prefs PreferenceTable, allowSolo bool) []Candidate {
	eligible := make([]TimeSlot, 0, len(slots))
	for _, s := range slots {
		rw, hw := prefs.Weights(s)
		if rw <= 0 || hw <= 0 {
			continue
		}
		s.Score = rw + hw
		eligible = append(eligible, s)
	}

	var out []Candidate
	for i, a := range eligible {
		for _, b := range eligible[i+1:] {
			if a.ResourceID == b.ResourceID && b.HourID == a.HourID+1 {
				out = append(out, Candidate{Slots: []TimeSlot{a, b}})
			}
		}
	}

	if len(out) == 0 && allowSolo {
		for _, s := range eligible {
			out = append(out, Candidate{Slots: []TimeSlot{s}})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}

// SummarizeSlots renders at most the first 8 slot labels for logs.
func SummarizeSlots(slots []TimeSlot) string {
	const limit = 8
	labels := make([]string, 0, limit)
	for i, s := range slots {
		if i == limit {
			labels = append(labels, "...")
			break
		}
		labels = append(labels, s.Label)
	}
	return strings.Join(labels, ", ")
}

// SummarizeCandidates renders at most the first 16 candidates for logs.
func SummarizeCandidates(cs []Candidate) string {
	const limit = 16
	parts := make([]string, 0, limit)
	for i, c := range cs {
		if i == limit {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}
