package catalog

import "github.com/example/gym-scheduler/internal/domain/booking"

// Static is the last-resort data used when the upstream cannot describe itself,
// which is common in the minutes after the daily refresh.
type Static struct {
	Resources map[string]string
	Hours     map[int]booking.Hour
	Weekday   map[booking.DaySegment]int
	Weekend   map[booking.DaySegment]int
}

// DefaultStatic describes the badminton hall (sport 51).
func DefaultStatic() Static {
	return Static{
		Resources: map[string]string{
			"220": "主馆1",
			"221": "主馆2",
			"222": "主馆3",
			"223": "主馆4",
			"224": "主馆5",
			"225": "主馆6",
			"226": "主馆7",
			"227": "主馆8",
			"228": "副馆9",
			"229": "副馆10",
			"230": "副馆11",
			"231": "副馆12",
		},
		Hours: map[int]booking.Hour{
			328228: {Begin: "08:00", End: "09:00", Segment: booking.SegmentMorning},
			328229: {Begin: "09:00", End: "10:00", Segment: booking.SegmentMorning},
			328230: {Begin: "10:00", End: "11:00", Segment: booking.SegmentMorning},
			328231: {Begin: "11:00", End: "12:00", Segment: booking.SegmentMorning},
			328232: {Begin: "12:00", End: "13:00", Segment: booking.SegmentMorning},
			328233: {Begin: "13:00", End: "14:00", Segment: booking.SegmentMorning},
			328234: {Begin: "14:00", End: "15:00", Segment: booking.SegmentDay},
			328235: {Begin: "15:00", End: "16:00", Segment: booking.SegmentDay},
			328236: {Begin: "16:00", End: "17:00", Segment: booking.SegmentDay},
			328237: {Begin: "17:00", End: "18:00", Segment: booking.SegmentDay},
			328238: {Begin: "18:00", End: "19:00", Segment: booking.SegmentNight},
			328239: {Begin: "19:00", End: "20:00", Segment: booking.SegmentNight},
			328240: {Begin: "20:00", End: "21:00", Segment: booking.SegmentNight},
			328241: {Begin: "21:00", End: "22:00", Segment: booking.SegmentNight},
		},
		Weekday: map[booking.DaySegment]int{
			booking.SegmentMorning: 10,
			booking.SegmentDay:     20,
			booking.SegmentNight:   50,
		},
		Weekend: map[booking.DaySegment]int{
			booking.SegmentMorning: 20,
			booking.SegmentDay:     50,
			booking.SegmentNight:   50,
		},
	}
}

// DefaultPreferences ranks courts and afternoon hours; 0 = never book.
func DefaultPreferences() booking.PreferenceTable {
	return booking.PreferenceTable{
		Resources: map[string]int{
			"220": 1, "221": 5, "222": 7, "223": 2, "224": 3, "225": 8,
			"226": 6, "227": 4, "228": 1, "229": 2, "230": 3, "231": 4,
		},
		Hours: map[int]int{
			328228: 0, 328229: 0, 328230: 2, 328231: 3, 328232: 5, 328233: 7, 328234: 9,
			328235: 10, 328236: 10, 328237: 0, 328238: 0, 328239: 0, 328240: 0, 328241: 0,
		},
	}
}
