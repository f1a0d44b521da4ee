package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/gymerr"
)

type fakeUpstream struct {
	booking.Upstream

	resources    map[string]string
	resourcesErr error
	hours        map[int]booking.Hour
	hoursErr     error
	prices       map[booking.DaySegment]int
	pricesErr    error
	avail        booking.AvailabilityMap
	availErr     error
}

func (f *fakeUpstream) ListResources(context.Context) (map[string]string, error) {
	return f.resources, f.resourcesErr
}

func (f *fakeUpstream) ListHours(context.Context) (map[int]booking.Hour, error) {
	return f.hours, f.hoursErr
}

func (f *fakeUpstream) GetPrice(context.Context, int, string) (map[booking.DaySegment]int, error) {
	return f.prices, f.pricesErr
}

func (f *fakeUpstream) GetAvailability(context.Context, string) (booking.AvailabilityMap, error) {
	return f.avail, f.availErr
}

type memStore struct {
	snap  *Snapshot
	saved int
}

func (m *memStore) Load(context.Context) (Snapshot, bool, error) {
	if m.snap == nil {
		return Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *memStore) Save(_ context.Context, s Snapshot) error {
	m.snap = &s
	m.saved++
	return nil
}

var (
	fresh      = map[string]string{"1": "Court 1"}
	freshHours = map[int]booking.Hour{10: {Begin: "14:00", End: "15:00", Segment: booking.SegmentDay}}
)

func TestRefresh_FreshDataSaved(t *testing.T) {
	up := &fakeUpstream{resources: fresh, hours: freshHours}
	store := &memStore{}
	c := New(up, DefaultStatic(), store, nil)

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, fresh, c.Resources(context.Background()))
	assert.Equal(t, freshHours, c.Hours(context.Background()))
	assert.Equal(t, 1, store.saved)
}

func TestRefresh_KeepsLastKnownGood(t *testing.T) {
	up := &fakeUpstream{resources: fresh, hours: freshHours}
	c := New(up, DefaultStatic(), nil, nil)
	require.NoError(t, c.Refresh(context.Background()))

	up.resourcesErr = gymerr.Server(http.StatusBadGateway)
	up.hours = nil

	err := c.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, gymerr.ErrServer)
	assert.Equal(t, fresh, c.Resources(context.Background()))
	assert.Equal(t, freshHours, c.Hours(context.Background()))
}

func TestRefresh_FallsBackToStoreThenStatic(t *testing.T) {
	stored := map[string]string{"9": "Stored 9"}
	up := &fakeUpstream{resourcesErr: errors.New("down"), hoursErr: errors.New("down")}
	store := &memStore{snap: &Snapshot{Resources: stored}}
	c := New(up, DefaultStatic(), store, nil)

	require.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, stored, c.Resources(context.Background()))
	// the snapshot carries no hours
	assert.Len(t, c.Hours(context.Background()), 14)
	assert.Zero(t, store.saved)
}

func TestResources_LazyLoadUsesStatic(t *testing.T) {
	up := &fakeUpstream{resourcesErr: errors.New("down"), hoursErr: errors.New("down")}
	c := New(up, DefaultStatic(), nil, nil)

	got := c.Resources(context.Background())

	assert.Len(t, got, 12)
	assert.Equal(t, "主馆1", got["220"])
}

func TestPrices(t *testing.T) {
	t.Run("upstream", func(t *testing.T) {
		want := map[booking.DaySegment]int{booking.SegmentMorning: 15, booking.SegmentDay: 30, booking.SegmentNight: 60}
		c := New(&fakeUpstream{prices: want}, DefaultStatic(), nil, nil)

		got, err := c.Prices(context.Background(), 0, "2025-05-23")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("incomplete upstream table falls back", func(t *testing.T) {
		partial := map[booking.DaySegment]int{booking.SegmentDay: 30}
		c := New(&fakeUpstream{prices: partial}, DefaultStatic(), nil, nil)

		got, err := c.Prices(context.Background(), 0, "2025-05-23")

		require.NoError(t, err)
		assert.Equal(t, DefaultStatic().Weekday, got)
	})

	t.Run("weekday fallback", func(t *testing.T) {
		c := New(&fakeUpstream{pricesErr: errors.New("down")}, DefaultStatic(), nil, nil)

		got, err := c.Prices(context.Background(), 0, "2025-05-23")

		require.NoError(t, err)
		assert.Equal(t, 20, got[booking.SegmentDay])
	})

	t.Run("weekend fallback", func(t *testing.T) {
		c := New(&fakeUpstream{pricesErr: errors.New("down")}, DefaultStatic(), nil, nil)

		got, err := c.Prices(context.Background(), 2, "2025-05-25")

		require.NoError(t, err)
		assert.Equal(t, 50, got[booking.SegmentDay])
		assert.Equal(t, 20, got[booking.SegmentMorning])
	})

	t.Run("bad day", func(t *testing.T) {
		c := New(&fakeUpstream{pricesErr: errors.New("down")}, DefaultStatic(), nil, nil)

		_, err := c.Prices(context.Background(), 0, "tomorrow")

		assert.Error(t, err)
	})
}

func TestOpenSlots(t *testing.T) {
	up := &fakeUpstream{
		resources: fresh,
		hours:     freshHours,
		avail:     booking.AvailabilityMap{"1-10": 0},
	}
	c := New(up, DefaultStatic(), nil, nil)

	got, err := c.OpenSlots(context.Background(), "2025-05-23")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Court 1 (14:00-15:00)", got[0].Label)
}

func TestOpenSlots_AvailabilityErrorKeepsKind(t *testing.T) {
	up := &fakeUpstream{resources: fresh, hours: freshHours, availErr: gymerr.Server(http.StatusServiceUnavailable)}
	c := New(up, DefaultStatic(), nil, nil)

	_, err := c.OpenSlots(context.Background(), "2025-05-23")

	assert.ErrorIs(t, err, gymerr.ErrServer)
}

func TestPrice(t *testing.T) {
	cand := booking.Candidate{Slots: []booking.TimeSlot{
		{Segment: booking.SegmentDay},
		{Segment: booking.SegmentNight},
	}}
	total, err := Price(cand, DefaultStatic().Weekday)
	require.NoError(t, err)
	assert.Equal(t, 70, total)
}

func TestPrice_MissingSegment(t *testing.T) {
	cand := booking.Candidate{Slots: []booking.TimeSlot{
		{Segment: booking.SegmentDay, Label: "Court 1 (14:00-15:00)"},
		{Segment: booking.SegmentNight, Label: "Court 1 (18:00-19:00)"},
	}}

	_, err := Price(cand, map[booking.DaySegment]int{booking.SegmentDay: 20})

	assert.ErrorIs(t, err, ErrNoPrice)
}
