// Package render draws availability and order listings for the terminal.
package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/example/gym-scheduler/internal/domain/booking"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Padding(0, 1)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("37")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Align(lipgloss.Center).Padding(0, 1)
)

// Schedule renders the resource x hour grid of day. Booked cells show "X".
func Schedule(day string, resources map[string]string, hours map[int]booking.Hour, avail booking.AvailabilityMap, noColor bool) string {
	hourIDs := booking.SortedHourIDs(hours)

	headers := make([]string, 0, len(hourIDs)+1)
	headers = append(headers, "Field")
	for _, hid := range hourIDs {
		headers = append(headers, hours[hid].Begin)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for _, rid := range booking.SortedResourceIDs(resources) {
		row := make([]string, 0, len(hourIDs)+1)
		row = append(row, resources[rid])
		for _, hid := range hourIDs {
			if avail.Free(rid, hid) {
				row = append(row, " ")
			} else {
				row = append(row, "X")
			}
		}
		t.Row(row...)
	}
	if !noColor {
		t.StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			default:
				return cellStyle
			}
		})
	}

	title := "Schedule [" + day + "]"
	if !noColor {
		title = titleStyle.Render(title)
	}
	return title + "\n" + t.Render()
}

// Orders renders an order listing.
func Orders(orders []booking.Order) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Order", "Status", "Day", "Field", "Hours")
	for _, o := range orders {
		ids := o.ResourceIDs()
		if len(ids) == 0 {
			t.Row(o.ID, string(o.Status), o.Day, "", "")
			continue
		}
		// one row per booked field
		for _, rid := range ids {
			hours := make([]string, 0, len(o.Fields[rid]))
			for _, h := range o.Fields[rid] {
				hours = append(hours, strconv.Itoa(h))
			}
			t.Row(o.ID, string(o.Status), o.Day, rid, strings.Join(hours, ","))
		}
	}
	return t.Render()
}
