package badger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	logger := common.GetLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{
		Path: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCompanyUpsertCreatesRecord(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())
	ctx := context.Background()

	update := &models.CompanyUpdate{
		Ticker: "ASX:BHP",
		Name:   "BHP Group Limited",
		Sector: models.StringPtr("Materials"),
		Price:  models.Float64Ptr(45.20),
	}
	if err := storage.Upsert(ctx, update); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	company, err := storage.Get(ctx, "ASX:BHP")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if company.Name != "BHP Group Limited" {
		t.Errorf("Name = %q, want %q", company.Name, "BHP Group Limited")
	}
	if company.Sector != "Materials" {
		t.Errorf("Sector = %q, want %q", company.Sector, "Materials")
	}
	if company.Price == nil || *company.Price != 45.20 {
		t.Errorf("Price = %v, want 45.20", company.Price)
	}
	if company.CreatedAt.IsZero() || company.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestCompanyUpsertNilFieldsKeepPersistedValues(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())
	ctx := context.Background()

	full := &models.CompanyUpdate{
		Ticker:      "ASX:BHP",
		Name:        "BHP Group Limited",
		Sector:      models.StringPtr("Materials"),
		Website:     models.StringPtr("https://www.bhp.com"),
		FoundedYear: models.IntPtr(1885),
		Price:       models.Float64Ptr(45.20),
		MarketCap:   models.Float64Ptr(230e9),
	}
	if err := storage.Upsert(ctx, full); err != nil {
		t.Fatalf("initial Upsert failed: %v", err)
	}

	// Price-only cycle: everything else nil must survive
	priceOnly := &models.CompanyUpdate{
		Ticker:        "ASX:BHP",
		Name:          "BHP Group Limited",
		Price:         models.Float64Ptr(46.00),
		ChangePercent: models.Float64Ptr(1.77),
	}
	if err := storage.Upsert(ctx, priceOnly); err != nil {
		t.Fatalf("price-only Upsert failed: %v", err)
	}

	company, err := storage.Get(ctx, "ASX:BHP")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if company.Price == nil || *company.Price != 46.00 {
		t.Errorf("Price = %v, want 46.00", company.Price)
	}
	if company.Sector != "Materials" {
		t.Errorf("Sector blanked by partial update: %q", company.Sector)
	}
	if company.Website != "https://www.bhp.com" {
		t.Errorf("Website blanked by partial update: %q", company.Website)
	}
	if company.FoundedYear == nil || *company.FoundedYear != 1885 {
		t.Errorf("FoundedYear lost by partial update: %v", company.FoundedYear)
	}
	if company.MarketCap == nil || *company.MarketCap != 230e9 {
		t.Errorf("MarketCap lost by partial update: %v", company.MarketCap)
	}
}

func TestCompanyUpsertRejectsNameless(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())
	ctx := context.Background()

	err := storage.Upsert(ctx, &models.CompanyUpdate{Ticker: "ASX:BHP"})
	if err == nil {
		t.Fatal("Upsert accepted update without a name")
	}

	if _, err := storage.Get(ctx, "ASX:BHP"); err != interfaces.ErrNotFound {
		t.Errorf("rejected upsert left a record behind: %v", err)
	}
}

func TestCompanyGetNotFound(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())

	_, err := storage.Get(context.Background(), "ASX:ZZZZ")
	if err != interfaces.ErrNotFound {
		t.Errorf("Get of missing company returned %v, want ErrNotFound", err)
	}
}

func TestCompanyListAndCount(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())
	ctx := context.Background()

	for _, ticker := range []string{"ASX:BHP", "ASX:CBA", "ASX:WES"} {
		update := &models.CompanyUpdate{Ticker: ticker, Name: "Company " + ticker}
		if err := storage.Upsert(ctx, update); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", ticker, err)
		}
	}

	companies, err := storage.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(companies) != 3 {
		t.Errorf("List returned %d companies, want 3", len(companies))
	}

	count, err := storage.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestPulseStorageSingleton(t *testing.T) {
	db := newTestDB(t)
	storage := NewPulseStorage(db, common.GetLogger())
	ctx := context.Background()

	if _, err := storage.Get(ctx); err != interfaces.ErrNotFound {
		t.Fatalf("Get on empty store returned %v, want ErrNotFound", err)
	}

	first := &models.PulseDocument{
		Summary:     "Markets opened higher.",
		Type:        models.PulseTypeGenerated,
		GeneratedAt: time.Now(),
	}
	if err := storage.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := &models.PulseDocument{
		Summary:     "Markets closed mixed.",
		Type:        models.PulseTypeGenerated,
		GeneratedAt: time.Now(),
	}
	if err := storage.Save(ctx, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	pulse, err := storage.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if pulse.Summary != "Markets closed mixed." {
		t.Errorf("Summary = %q, want the latest save", pulse.Summary)
	}
	if pulse.ID != models.PulseDocumentID {
		t.Errorf("ID = %q, want %q", pulse.ID, models.PulseDocumentID)
	}
}

func TestHeadlineSaveDeduplicatesByLink(t *testing.T) {
	db := newTestDB(t)
	storage := NewHeadlineStorage(db, common.GetLogger())
	ctx := context.Background()

	headline := &models.Headline{
		Title:       "BHP reports record output",
		Link:        "https://example.com/news/1",
		PublishedAt: time.Now(),
	}

	created, err := storage.Save(ctx, headline)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !created {
		t.Error("first Save reported duplicate")
	}

	dup := &models.Headline{
		Title:       "BHP reports record output (syndicated)",
		Link:        "https://example.com/news/1",
		PublishedAt: time.Now(),
	}
	created, err = storage.Save(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate Save failed: %v", err)
	}
	if created {
		t.Error("duplicate link was stored")
	}
}

func TestHeadlineMostRecentOrdersByPublishedAt(t *testing.T) {
	db := newTestDB(t)
	storage := NewHeadlineStorage(db, common.GetLogger())
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	titles := []string{"oldest", "middle", "newest"}
	for i, title := range titles {
		headline := &models.Headline{
			Title:       title,
			Link:        "https://example.com/news/" + title,
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := storage.Save(ctx, headline); err != nil {
			t.Fatalf("Save(%s) failed: %v", title, err)
		}
	}

	recent, err := storage.MostRecent(ctx, 2)
	if err != nil {
		t.Fatalf("MostRecent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("MostRecent returned %d headlines, want 2", len(recent))
	}
	if recent[0].Title != "newest" || recent[1].Title != "middle" {
		t.Errorf("order = [%s, %s], want [newest, middle]", recent[0].Title, recent[1].Title)
	}
}

func TestHeadlinePrune(t *testing.T) {
	db := newTestDB(t)
	storage := NewHeadlineStorage(db, common.GetLogger())
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		headline := &models.Headline{
			Title:       "headline",
			Link:        "https://example.com/news/" + string(rune('a'+i)),
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := storage.Save(ctx, headline); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	removed, err := storage.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune removed %d, want 3", removed)
	}

	remaining, err := storage.MostRecent(ctx, 10)
	if err != nil {
		t.Fatalf("MostRecent failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("%d headlines remain, want 2", len(remaining))
	}
}

func TestKVStorageRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewKVStorage(db, common.GetLogger())
	ctx := context.Background()

	if _, err := storage.Get(ctx, "eodhd_api_key"); err != interfaces.ErrKeyNotFound {
		t.Fatalf("Get on empty store returned %v, want ErrKeyNotFound", err)
	}

	if err := storage.Set(ctx, "EODHD_API_Key", "secret", "provider token"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Keys are case-insensitive
	value, err := storage.Get(ctx, "eodhd_api_key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "secret" {
		t.Errorf("value = %q, want %q", value, "secret")
	}

	if err := storage.Delete(ctx, "EODHD_API_KEY"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := storage.Get(ctx, "eodhd_api_key"); err != interfaces.ErrKeyNotFound {
		t.Errorf("Get after Delete returned %v, want ErrKeyNotFound", err)
	}
}

func TestCompanyUpsertConcurrentDisjointPatches(t *testing.T) {
	db := newTestDB(t)
	storage := NewCompanyStorage(db, common.GetLogger())
	ctx := context.Background()

	seed := &models.CompanyUpdate{
		Ticker: "ASX:BHP",
		Name:   "BHP Group",
		Sector: models.StringPtr("Materials"),
		Price:  models.Float64Ptr(40.0),
	}
	if err := storage.Upsert(ctx, seed); err != nil {
		t.Fatalf("seed Upsert failed: %v", err)
	}

	// A fast price patch and a metadata patch racing on the same record:
	// the transactional read-modify-write must not lose either field set.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- storage.Upsert(ctx, &models.CompanyUpdate{
			Ticker: "ASX:BHP",
			Price:  models.Float64Ptr(41.5),
			Volume: models.Int64Ptr(1_000_000),
		})
	}()
	go func() {
		defer wg.Done()
		errs <- storage.Upsert(ctx, &models.CompanyUpdate{
			Ticker:  "ASX:BHP",
			Website: models.StringPtr("https://www.bhp.com"),
			CEO:     models.StringPtr("Mike Henry"),
		})
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Upsert failed: %v", err)
		}
	}

	company, err := storage.Get(ctx, "ASX:BHP")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if company.Price == nil || *company.Price != 41.5 {
		t.Errorf("Price = %v, want 41.5", company.Price)
	}
	if company.Volume == nil || *company.Volume != 1_000_000 {
		t.Errorf("Volume = %v, want 1000000", company.Volume)
	}
	if company.Website != "https://www.bhp.com" {
		t.Errorf("Website = %q, want the patched value", company.Website)
	}
	if company.CEO != "Mike Henry" {
		t.Errorf("CEO = %q, want the patched value", company.CEO)
	}
	if company.Name != "BHP Group" || company.Sector != "Materials" {
		t.Errorf("seeded identity fields changed: %s / %s", company.Name, company.Sector)
	}
}
