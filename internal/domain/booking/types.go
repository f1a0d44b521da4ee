package booking

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DaySegment is the pricing band an hour belongs to.
type DaySegment string

const (
	SegmentMorning DaySegment = "morning"
	SegmentDay     DaySegment = "day"
	SegmentNight   DaySegment = "night"
)

// Hour describes one bookable hour of the facility.
type Hour struct {
	Begin   string     `json:"begin"`
	End     string     `json:"end"`
	Segment DaySegment `json:"segment"`
}

// TimeSlot is one open (resource, hour) pair on a given day.
type TimeSlot struct {
	ResourceID string
	HourID     int
	Segment    DaySegment
	Label      string

	// Score is the preference weight, filled in by BuildCandidates.
	Score int
}

// AvailabilityMap maps "resource-hour" keys to upstream status; 0 means free.
type AvailabilityMap map[string]int

func SlotKey(resourceID string, hourID int) string {
	return resourceID + "-" + strconv.Itoa(hourID)
}

// Free reports whether the slot is bookable. Missing keys are not.
func (a AvailabilityMap) Free(resourceID string, hourID int) bool {
	st, ok := a[SlotKey(resourceID, hourID)]
	return ok && st == 0
}

// Candidate is a group of one or two slots submitted as a single order.
type Candidate struct {
	Slots []TimeSlot
}

func (c Candidate) Score() int {
	total := 0
	for _, s := range c.Slots {
		total += s.Score
	}
	return total
}

func (c Candidate) ResourceID() string {
	if len(c.Slots) == 0 {
		return ""
	}
	return c.Slots[0].ResourceID
}

func (c Candidate) HourIDs() []int {
	out := make([]int, 0, len(c.Slots))
	for _, s := range c.Slots {
		out = append(out, s.HourID)
	}
	return out
}

func (c Candidate) String() string {
	labels := make([]string, 0, len(c.Slots))
	for _, s := range c.Slots {
		labels = append(labels, s.Label)
	}
	return "[" + strings.Join(labels, ", ") + "]"
}

var ErrInvalidCandidate = errors.New("invalid candidate")

// Validate enforces the order shape the upstream accepts: one or two slots,
// and a pair must be the same resource on consecutive hours.
func (c Candidate) Validate() error {
	switch len(c.Slots) {
	case 1:
		return nil
	case 2:
		a, b := c.Slots[0], c.Slots[1]
		if a.ResourceID != b.ResourceID {
			return fmt.Errorf("%w: pair spans resources %s and %s", ErrInvalidCandidate, a.ResourceID, b.ResourceID)
		}
		if b.HourID != a.HourID+1 {
			return fmt.Errorf("%w: hours %d and %d are not consecutive", ErrInvalidCandidate, a.HourID, b.HourID)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d slots, want 1 or 2", ErrInvalidCandidate, len(c.Slots))
	}
}

type OrderStatus string

const (
	StatusCreated OrderStatus = "created"
	StatusPaid    OrderStatus = "paid"
	StatusExpired OrderStatus = "expired"
	StatusFinish  OrderStatus = "finish"
)

// Order is an upstream order as listed by the booking service. Fields maps
// each booked resource id to its hour ids.
type Order struct {
	ID     string
	Status OrderStatus
	Day    string
	Fields map[string][]int
}

// ResourceIDs lists the booked resource ids in numeric order.
func (o Order) ResourceIDs() []string {
	ids := make([]string, 0, len(o.Fields))
	for id := range o.Fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}

// Covers reports whether the order books the given slot on day.
func (o Order) Covers(day string, resourceID string, hourID int) bool {
	if o.Day != day {
		return false
	}
	for _, h := range o.Fields[resourceID] {
		if h == hourID {
			return true
		}
	}
	return false
}

// OrderRequest is everything needed to submit one order.
type OrderRequest struct {
	Day        string
	ResourceID string
	HourIDs    []int
	TotalPrice int
}

// DayFor returns the calendar date offset days after now, formatted for the upstream.
func DayFor(now time.Time, offset int) string {
	return now.AddDate(0, 0, offset).Format(DateLayout)
}

// IsWeekend reports whether the YYYY-MM-DD day falls on Saturday or Sunday.
func IsWeekend(day string) (bool, error) {
	d, err := time.Parse(DateLayout, day)
	if err != nil {
		return false, fmt.Errorf("parse day %q: %w", day, err)
	}
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday, nil
}
