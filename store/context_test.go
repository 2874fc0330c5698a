package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"milkbook/models"
)

// fakeRemote is an in-memory Remote with injectable failures, standing in
// for postgres in coordinator tests.
type fakeRemote struct {
	mu sync.Mutex

	pingErr         error
	insertErr       error
	villageFetchErr error

	people   map[string]models.Person
	village  map[string]models.VillageEntry
	city     map[string]models.CityEntry
	dairy    map[string]models.DairyEntry
	payments map[string]models.Payment

	bulkUploads []string
	inserts     int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		people:   make(map[string]models.Person),
		village:  make(map[string]models.VillageEntry),
		city:     make(map[string]models.CityEntry),
		dairy:    make(map[string]models.DairyEntry),
		payments: make(map[string]models.Payment),
	}
}

func (f *fakeRemote) Ping(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeRemote) CountPeople(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(0)
	for _, p := range f.people {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRemote) People(ctx context.Context, userID string) ([]models.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Person
	for _, p := range f.people {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRemote) VillageEntries(ctx context.Context, userID string) ([]models.VillageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.villageFetchErr != nil {
		return nil, f.villageFetchErr
	}
	var out []models.VillageEntry
	for _, e := range f.village {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRemote) CityEntries(ctx context.Context, userID string) ([]models.CityEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CityEntry
	for _, e := range f.city {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRemote) DairyEntries(ctx context.Context, userID string) ([]models.DairyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DairyEntry
	for _, e := range f.dairy {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRemote) Payments(ctx context.Context, userID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRemote) UpsertPeople(ctx context.Context, userID string, people []models.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUploads = append(f.bulkUploads, "people")
	for _, p := range people {
		p.UserID = userID
		f.people[p.ID] = p
	}
	return nil
}

func (f *fakeRemote) UpsertVillageEntries(ctx context.Context, userID string, entries []models.VillageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUploads = append(f.bulkUploads, "village_entries")
	for _, e := range entries {
		e.UserID = userID
		f.village[e.ID] = e
	}
	return nil
}

func (f *fakeRemote) UpsertCityEntries(ctx context.Context, userID string, entries []models.CityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUploads = append(f.bulkUploads, "city_entries")
	for _, e := range entries {
		e.UserID = userID
		f.city[e.ID] = e
	}
	return nil
}

func (f *fakeRemote) UpsertDairyEntries(ctx context.Context, userID string, entries []models.DairyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUploads = append(f.bulkUploads, "dairy_entries")
	for _, e := range entries {
		e.UserID = userID
		f.dairy[e.ID] = e
	}
	return nil
}

func (f *fakeRemote) UpsertPayments(ctx context.Context, userID string, payments []models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkUploads = append(f.bulkUploads, "payments")
	for _, p := range payments {
		p.UserID = userID
		f.payments[p.ID] = p
	}
	return nil
}

func (f *fakeRemote) InsertPerson(ctx context.Context, p models.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.people[p.ID] = p
	return nil
}

func (f *fakeRemote) UpdatePerson(ctx context.Context, p models.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.people[p.ID] = p
	return nil
}

func (f *fakeRemote) DeletePerson(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.people, id)
	return nil
}

func (f *fakeRemote) InsertVillageEntry(ctx context.Context, e models.VillageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.village[e.ID] = e
	return nil
}

func (f *fakeRemote) UpdateVillageEntry(ctx context.Context, e models.VillageEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.village[e.ID] = e
	return nil
}

func (f *fakeRemote) DeleteVillageEntry(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.village, id)
	return nil
}

func (f *fakeRemote) InsertCityEntry(ctx context.Context, e models.CityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.city[e.ID] = e
	return nil
}

func (f *fakeRemote) UpdateCityEntry(ctx context.Context, e models.CityEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.city[e.ID] = e
	return nil
}

func (f *fakeRemote) DeleteCityEntry(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.city, id)
	return nil
}

func (f *fakeRemote) InsertDairyEntry(ctx context.Context, e models.DairyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.dairy[e.ID] = e
	return nil
}

func (f *fakeRemote) UpdateDairyEntry(ctx context.Context, e models.DairyEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dairy[e.ID] = e
	return nil
}

func (f *fakeRemote) DeleteDairyEntry(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.dairy, id)
	return nil
}

func (f *fakeRemote) InsertPayment(ctx context.Context, p models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	f.payments[p.ID] = p
	return nil
}

func (f *fakeRemote) UpdatePayment(ctx context.Context, p models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
	return nil
}

func (f *fakeRemote) DeletePayment(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payments, id)
	return nil
}

func (f *fakeRemote) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

func (f *fakeRemote) uploadedCollections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bulkUploads...)
}

func TestLoadOfflineFallsBackToCache(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Save("u1", models.AppData{
		People: []models.Person{{ID: "p1", Name: "Ravi", Category: models.CategoryVillage}},
	}))

	remote := newFakeRemote()
	remote.pingErr = errors.New("network unreachable")

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())

	st := d.Status()
	assert.True(t, st.Offline)
	assert.Equal(t, ConnOffline, st.Connectivity)
	require.Len(t, d.Data().People, 1)
	assert.Equal(t, "Ravi", d.Data().People[0].Name)
}

func TestLoadWithoutRemoteIsOffline(t *testing.T) {
	cache := newTestCache(t)

	d := NewDataContext("u1", cache, nil, zap.NewNop())
	d.Load(context.Background())

	assert.True(t, d.Status().Offline)
	assert.True(t, d.Data().Empty())
}

func TestLoadFirstSyncUploadsLocalData(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Save("u1", models.AppData{
		People:   []models.Person{{ID: "p1", UserID: "u1", Name: "Ravi", Category: models.CategoryVillage}},
		Payments: []models.Payment{{ID: "pay1", UserID: "u1", PersonID: "p1", Amount: 100}},
	}))

	remote := newFakeRemote()
	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())

	// Only the non-empty collections go up.
	assert.ElementsMatch(t, []string{"people", "payments"}, remote.uploadedCollections())

	st := d.Status()
	assert.False(t, st.Offline)
	assert.False(t, st.LastSyncTime.IsZero())
	require.Len(t, d.Data().People, 1)
	require.Len(t, d.Data().Payments, 1)
}

func TestLoadSkipsUploadWhenRemoteHasData(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Save("u1", models.AppData{
		People: []models.Person{{ID: "stale", UserID: "u1", Name: "Stale"}},
	}))

	remote := newFakeRemote()
	remote.people["p1"] = models.Person{ID: "p1", UserID: "u1", Name: "Ravi"}

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())

	// Remote already holds data, so nothing is uploaded and the remote copy
	// replaces the stale local one.
	assert.Empty(t, remote.uploadedCollections())
	require.Len(t, d.Data().People, 1)
	assert.Equal(t, "p1", d.Data().People[0].ID)

	cached, found, err := cache.Load("u1")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, cached.People, 1)
	assert.Equal(t, "p1", cached.People[0].ID)
}

func TestLoadPartialFetchFailure(t *testing.T) {
	cache := newTestCache(t)
	remote := newFakeRemote()
	remote.people["p1"] = models.Person{ID: "p1", UserID: "u1", Name: "Ravi"}
	remote.village["v1"] = models.VillageEntry{ID: "v1", UserID: "u1", PersonID: "p1"}
	remote.villageFetchErr = errors.New("relation is busy")

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())

	// The failed collection comes back empty; the rest still load.
	assert.False(t, d.Status().Offline)
	require.Len(t, d.Data().People, 1)
	assert.Empty(t, d.Data().VillageEntries)
}

func TestMutateOfflineKeepsLocalOnly(t *testing.T) {
	cache := newTestCache(t)
	remote := newFakeRemote()
	remote.pingErr = errors.New("network unreachable")

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())

	p := d.AddPerson(context.Background(), models.Person{Name: "Ravi", Value: 40, Category: models.CategoryVillage})
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.UserID)

	assert.Equal(t, 0, remote.insertCount())
	cached, found, err := cache.Load("u1")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, cached.People, 1)
}

func TestMutateRemoteFailureKeepsLocal(t *testing.T) {
	cache := newTestCache(t)
	remote := newFakeRemote()

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())
	remote.insertErr = errors.New("connection reset")

	d.AddPerson(context.Background(), models.Person{Name: "Ravi", Category: models.CategoryVillage})

	// The local copy survives and connectivity does not flip.
	require.Len(t, d.Data().People, 1)
	assert.False(t, d.Status().Offline)
	cached, _, err := cache.Load("u1")
	require.NoError(t, err)
	require.Len(t, cached.People, 1)
}

func TestUpdateMissingRecord(t *testing.T) {
	cache := newTestCache(t)
	d := NewDataContext("u1", cache, nil, zap.NewNop())
	d.Load(context.Background())

	_, ok := d.UpdatePerson(context.Background(), "nope", models.Person{Name: "X"})
	assert.False(t, ok)
}

func TestSyncDataRemoteWins(t *testing.T) {
	cache := newTestCache(t)
	remote := newFakeRemote()
	remote.people["remote1"] = models.Person{ID: "remote1", UserID: "u1", Name: "FromOtherDevice"}

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())
	d.AddPerson(context.Background(), models.Person{Name: "Local", Category: models.CategoryCity})

	d.SyncData(context.Background())

	st := d.Status()
	assert.Equal(t, SyncIdle, st.SyncStatus)
	assert.False(t, st.Offline)

	// Both the pushed local person and the other device's person survive.
	names := map[string]bool{}
	for _, p := range d.Data().People {
		names[p.Name] = true
	}
	assert.True(t, names["Local"])
	assert.True(t, names["FromOtherDevice"])
}

func TestSyncDataOfflineSetsError(t *testing.T) {
	cache := newTestCache(t)
	remote := newFakeRemote()
	remote.pingErr = errors.New("network unreachable")

	d := NewDataContext("u1", cache, remote, zap.NewNop())
	d.Load(context.Background())
	d.SyncData(context.Background())

	st := d.Status()
	assert.Equal(t, SyncError, st.SyncStatus)
	assert.True(t, st.Offline)
	assert.True(t, st.LastSyncTime.IsZero())
}

func TestFindVillageEntryByPersonAndDate(t *testing.T) {
	cache := newTestCache(t)
	d := NewDataContext("u1", cache, nil, zap.NewNop())
	d.Load(context.Background())

	added := d.AddVillageEntry(context.Background(), models.VillageEntry{PersonID: "p1", Date: "2026-08-01", Amount: 100})
	d.AddVillageEntry(context.Background(), models.VillageEntry{PersonID: "p1", Date: "2026-08-02", Amount: 200})

	got, ok := d.FindVillageEntry("p1", "2026-08-01")
	require.True(t, ok)
	assert.Equal(t, added.ID, got.ID)

	_, ok = d.FindVillageEntry("p1", "2026-08-03")
	assert.False(t, ok)
}

func TestFindDairyEntryByPersonDateSession(t *testing.T) {
	cache := newTestCache(t)
	d := NewDataContext("u1", cache, nil, zap.NewNop())
	d.Load(context.Background())

	morning := d.AddDairyEntry(context.Background(), models.DairyEntry{PersonID: "p1", Date: "2026-08-01", Session: models.SessionMorning})
	evening := d.AddDairyEntry(context.Background(), models.DairyEntry{PersonID: "p1", Date: "2026-08-01", Session: models.SessionEvening})

	got, ok := d.FindDairyEntry("p1", "2026-08-01", models.SessionMorning)
	require.True(t, ok)
	assert.Equal(t, morning.ID, got.ID)

	got, ok = d.FindDairyEntry("p1", "2026-08-01", models.SessionEvening)
	require.True(t, ok)
	assert.Equal(t, evening.ID, got.ID)
}

func TestManagerReusesAndDropsContexts(t *testing.T) {
	cache := newTestCache(t)
	m := NewManager(cache, nil, zap.NewNop())

	a := m.Context(context.Background(), "u1")
	b := m.Context(context.Background(), "u1")
	assert.Same(t, a, b)

	a.AddPerson(context.Background(), models.Person{Name: "Ravi", Category: models.CategoryCity})

	m.Drop("u1")
	c := m.Context(context.Background(), "u1")
	assert.NotSame(t, a, c)
	// The cache slot survives logout; the fresh context reloads from it.
	require.Len(t, c.Data().People, 1)
}
