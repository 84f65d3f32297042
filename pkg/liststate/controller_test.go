package liststate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type appt struct {
	ID     string
	Name   string
	Phone  string
	Status string
}

func apptConfig(fetch FetchFunc[appt]) Config[appt] {
	return Config[appt]{
		PageSize: 3,
		Fetch:    fetch,
		KeyOf:    func(a appt) string { return a.ID },
		SearchText: func(a appt) []string {
			return []string{a.Name, a.Phone}
		},
		FacetsOf: func(a appt) Facets {
			return Facets{Status: a.Status}
		},
	}
}

func fixedPage(items []appt) FetchFunc[appt] {
	return func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		return Page[appt]{Items: items}, nil
	}
}

func TestNewController_RequiresKeyOf(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing KeyOf")
		}
	}()
	NewController(Config[appt]{
		PageSize: 3,
		Fetch:    fixedPage(nil),
	})
}

func TestFetch_LoadedPhase(t *testing.T) {
	c := NewController(apptConfig(fixedPage([]appt{{ID: "1"}, {ID: "2"}})))
	if c.Phase() != PhaseIdle {
		t.Fatalf("expected idle before fetch, got %s", c.Phase())
	}
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if c.Phase() != PhaseLoaded {
		t.Errorf("expected loaded, got %s", c.Phase())
	}
	if len(c.Items()) != 2 {
		t.Errorf("expected 2 items, got %d", len(c.Items()))
	}
}

func TestFetch_FailureEntersErroredWithRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		if fail.Load() {
			return Page[appt]{}, errors.New("server error")
		}
		return Page[appt]{Items: []appt{{ID: "1"}}}, nil
	}
	c := NewController(apptConfig(fetch))

	if err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	if c.Phase() != PhaseErrored {
		t.Errorf("expected errored, got %s", c.Phase())
	}
	if c.Err() == nil {
		t.Error("expected Err to be set")
	}

	// User-initiated retry is just another Fetch.
	fail.Store(false)
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if c.Phase() != PhaseLoaded || c.Err() != nil {
		t.Errorf("expected recovered state, phase=%s err=%v", c.Phase(), c.Err())
	}
}

func TestHasMore_InferredFromPageFill(t *testing.T) {
	// Full page, no server totals: more is assumed.
	c := NewController(apptConfig(fixedPage([]appt{{ID: "1"}, {ID: "2"}, {ID: "3"}})))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !c.HasMore() {
		t.Error("full page without totals should imply more")
	}

	// Short page: no more.
	c = NewController(apptConfig(fixedPage([]appt{{ID: "1"}})))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.HasMore() {
		t.Error("short page without totals should imply no more")
	}
}

func TestHasMore_ServerTotalsWin(t *testing.T) {
	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		// Full page, but the server says this is the only page.
		return Page[appt]{
			Items:        []appt{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			TotalKnown:   true,
			TotalPages:   1,
			TotalRecords: 3,
		}, nil
	}
	c := NewController(apptConfig(fetch))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.HasMore() {
		t.Error("server totals must override page-fill inference")
	}
}

func TestLoadMore_AppendsAndDeduplicates(t *testing.T) {
	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		switch page {
		case 1:
			return Page[appt]{Items: []appt{{ID: "1"}, {ID: "2"}, {ID: "3"}}}, nil
		default:
			// "3" repeats across the page boundary.
			return Page[appt]{Items: []appt{{ID: "3"}, {ID: "4"}}}, nil
		}
	}
	c := NewController(apptConfig(fetch))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	items := c.Items()
	if len(items) != 4 {
		t.Fatalf("expected 4 unique items, got %d", len(items))
	}
	if c.Pagination().CurrentPage != 2 {
		t.Errorf("expected current page 2, got %d", c.Pagination().CurrentPage)
	}
	// Second page was short: no more.
	if c.HasMore() {
		t.Error("expected no more after short second page")
	}
}

func TestLoadMore_FailureKeepsItems(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		if calls.Add(1) == 1 {
			return Page[appt]{Items: []appt{{ID: "1"}, {ID: "2"}, {ID: "3"}}}, nil
		}
		return Page[appt]{}, errors.New("timeout")
	}
	c := NewController(apptConfig(fetch))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadMore(context.Background()); err == nil {
		t.Fatal("expected load-more failure")
	}
	if c.Phase() != PhaseLoaded {
		t.Errorf("load-more failure must not leave Loaded, got %s", c.Phase())
	}
	if len(c.Items()) != 3 {
		t.Errorf("existing items must survive a failed load-more, got %d", len(c.Items()))
	}
}

func TestRemoveLocal_OptimisticDeleteWithoutRefetch(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		fetches.Add(1)
		return Page[appt]{
			Items:        []appt{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			TotalKnown:   true,
			TotalPages:   4,
			TotalRecords: 10,
		}, nil
	}
	c := NewController(apptConfig(fetch))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := fetches.Load()

	if !c.RemoveLocal("2") {
		t.Fatal("expected removal of item 2")
	}
	for _, item := range c.Items() {
		if item.ID == "2" {
			t.Error("item 2 still present after optimistic delete")
		}
	}
	if got := c.Pagination().TotalRecords; got != 9 {
		t.Errorf("expected tracked total to drop to 9, got %d", got)
	}
	if fetches.Load() != before {
		t.Error("optimistic delete must not trigger a network fetch")
	}

	if c.RemoveLocal("missing") {
		t.Error("removing an absent key must report false")
	}
}

func TestUpsertLocal_ReplacesInPlace(t *testing.T) {
	c := NewController(apptConfig(fixedPage([]appt{
		{ID: "1", Status: "Pending"},
		{ID: "2", Status: "Pending"},
	})))
	if err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.UpsertLocal(appt{ID: "1", Status: "Confirmed"})
	items := c.Items()
	if items[0].ID != "1" || items[0].Status != "Confirmed" {
		t.Errorf("expected in-place replacement, got %+v", items[0])
	}
	if len(items) != 2 {
		t.Errorf("upsert of existing key must not grow the list, got %d", len(items))
	}
}

func TestRefilter_SearchAndFacets(t *testing.T) {
	items := []appt{
		{ID: "1", Name: "Jane Doe", Phone: "9999999999", Status: "Under Observation"},
		{ID: "2", Name: "John Roe", Phone: "8888888888", Status: "Discharged"},
		{ID: "3", Name: "Janet Poe", Phone: "7777777777", Status: "Under Observation"},
	}
	c := NewController(apptConfig(fixedPage(items)))

	// Case-insensitive substring search across fields.
	if err := c.SetFilters(context.Background(), Filters{Search: "jAn"}); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Items()); got != 2 {
		t.Errorf("search 'jAn': expected 2 items, got %d", got)
	}

	// Dash-separated facet values match space-separated entity values.
	if err := c.SetFilters(context.Background(), Filters{Status: "under-observation"}); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Items()); got != 2 {
		t.Errorf("status filter: expected 2 items, got %d", got)
	}

	// Server ignoring filters is tolerated: the fetch returns everything,
	// the controller narrows locally.
	if err := c.SetFilters(context.Background(), Filters{Search: "9999999999", Status: "under-observation"}); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Items()); got != 1 {
		t.Errorf("combined filters: expected 1 item, got %d", got)
	}
}

// A slow earlier fetch must not overwrite the result of a newer one, and
// its context must be canceled once superseded.
func TestFetch_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	var canceled atomic.Bool

	fetch := func(ctx context.Context, page, limit int, f Filters) (Page[appt], error) {
		if f.Search == "old" {
			select {
			case <-release:
			case <-time.After(5 * time.Second):
			}
			if ctx.Err() != nil {
				canceled.Store(true)
			}
			return Page[appt]{Items: []appt{{ID: "stale", Name: "old"}}}, nil
		}
		return Page[appt]{Items: []appt{{ID: "fresh", Name: "new"}}}, nil
	}
	cfg := Config[appt]{
		PageSize: 3,
		Fetch:    fetch,
		KeyOf:    func(a appt) string { return a.ID },
	}
	c := NewController(cfg)

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- c.SetFilters(context.Background(), Filters{Search: "old"})
	}()

	// Give the slow fetch time to start, then supersede it.
	time.Sleep(20 * time.Millisecond)
	if err := c.SetFilters(context.Background(), Filters{Search: "new"}); err != nil {
		t.Fatalf("fast fetch: %v", err)
	}

	close(release)
	if err := <-slowDone; !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale fetch to report ErrStale, got %v", err)
	}

	items := c.Items()
	if len(items) != 1 || items[0].ID != "fresh" {
		t.Fatalf("stale response overwrote fresh data: %+v", items)
	}
	if !canceled.Load() {
		t.Error("superseded fetch context was not canceled")
	}
}
