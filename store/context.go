package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"milkbook/models"
)

// probeTimeout bounds the connectivity probe. Individual remote writes are
// deliberately unbounded, matching the best-effort mirroring policy.
const probeTimeout = 8 * time.Second

// Connectivity states.
const (
	ConnUnknown = "unknown"
	ConnOnline  = "online"
	ConnOffline = "offline"
)

// Sync status, surfaced to the UI status badge.
const (
	SyncIdle    = "idle"
	SyncSyncing = "syncing"
	SyncError   = "error"
)

// Status is the snapshot behind the status badge and the retry button.
type Status struct {
	Offline      bool      `json:"offline"`
	Connectivity string    `json:"connectivity"`
	SyncStatus   string    `json:"syncStatus"`
	LastSyncTime time.Time `json:"lastSyncTime"`
}

// DataContext owns one authenticated user's dataset. Every mutation is
// applied to memory and the local cache before a best-effort mirror to the
// remote store; an explicit sync always lets the remote copy win. No public
// operation returns an error: failures degrade to offline behavior or are
// logged and skipped.
type DataContext struct {
	mu     sync.Mutex
	userID string
	cache  *Cache
	remote Remote // nil when no remote credentials are configured
	log    *zap.Logger

	data         models.AppData
	connectivity string
	syncStatus   string
	lastSync     time.Time
}

// NewDataContext builds a context for one owner. Call Load before reading
// Data; the Manager does this.
func NewDataContext(userID string, cache *Cache, remote Remote, log *zap.Logger) *DataContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &DataContext{
		userID:       userID,
		cache:        cache,
		remote:       remote,
		log:          log.With(zap.String("user", userID)),
		connectivity: ConnUnknown,
		syncStatus:   SyncIdle,
	}
}

// Data returns a copy of the in-memory dataset.
func (d *DataContext) Data() models.AppData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Clone()
}

// Status returns the current connectivity and sync snapshot.
func (d *DataContext) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Offline:      d.connectivity != ConnOnline,
		Connectivity: d.connectivity,
		SyncStatus:   d.syncStatus,
		LastSyncTime: d.lastSync,
	}
}

// probeConnectivity classifies the remote store as reachable or not with a
// bounded read. Missing credentials count as offline, same as a timeout or
// network failure.
func (d *DataContext) probeConnectivity(ctx context.Context) bool {
	if d.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := d.remote.Ping(ctx, d.userID); err != nil {
		d.log.Info("connectivity probe failed", zap.Error(err))
		return false
	}
	return true
}

// Load refreshes the in-memory dataset: from the remote store when online
// (pushing local-only data up first on the very first sync), from the local
// cache otherwise. It always leaves the dataset in a valid, possibly stale,
// state and never fails.
func (d *DataContext) Load(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.load(ctx)
}

func (d *DataContext) load(ctx context.Context) {
	if !d.probeConnectivity(ctx) {
		d.connectivity = ConnOffline
		cached, _, err := d.cache.Load(d.userID)
		if err != nil {
			d.log.Warn("local cache read failed, starting empty", zap.Error(err))
		}
		d.data = cached
		return
	}
	d.connectivity = ConnOnline

	// First sync for this user: the remote holds nothing yet but this
	// device does, so push the local copy up before pulling.
	if n, err := d.remote.CountPeople(ctx, d.userID); err != nil {
		d.log.Warn("existence probe failed", zap.Error(err))
	} else if n == 0 {
		if cached, ok, err := d.cache.Load(d.userID); err != nil {
			d.log.Warn("local cache read failed before bulk upload", zap.Error(err))
		} else if ok && !cached.Empty() {
			d.log.Info("first sync detected, uploading local data")
			d.bulkUpload(ctx, cached)
		}
	}

	d.data = d.fetchAll(ctx)
	if err := d.cache.Save(d.userID, d.data); err != nil {
		d.log.Warn("local cache write failed after load", zap.Error(err))
	}
	d.lastSync = time.Now()
}

// fetchAll pulls the five collections. A failed collection comes back empty
// and is logged; it never aborts the rest of the load.
func (d *DataContext) fetchAll(ctx context.Context) models.AppData {
	var out models.AppData
	if people, err := d.remote.People(ctx, d.userID); err != nil {
		d.log.Warn("people fetch failed, treating as empty", zap.Error(err))
	} else {
		out.People = people
	}
	if entries, err := d.remote.VillageEntries(ctx, d.userID); err != nil {
		d.log.Warn("village entries fetch failed, treating as empty", zap.Error(err))
	} else {
		out.VillageEntries = entries
	}
	if entries, err := d.remote.CityEntries(ctx, d.userID); err != nil {
		d.log.Warn("city entries fetch failed, treating as empty", zap.Error(err))
	} else {
		out.CityEntries = entries
	}
	if entries, err := d.remote.DairyEntries(ctx, d.userID); err != nil {
		d.log.Warn("dairy entries fetch failed, treating as empty", zap.Error(err))
	} else {
		out.DairyEntries = entries
	}
	if payments, err := d.remote.Payments(ctx, d.userID); err != nil {
		d.log.Warn("payments fetch failed, treating as empty", zap.Error(err))
	} else {
		out.Payments = payments
	}
	return out
}

// bulkUpload pushes every non-empty collection to the remote store, one
// keyed upsert per collection. Failures are logged per collection and never
// abort the remaining uploads or propagate to the caller.
func (d *DataContext) bulkUpload(ctx context.Context, data models.AppData) {
	if len(data.People) > 0 {
		if err := d.remote.UpsertPeople(ctx, d.userID, data.People); err != nil {
			d.log.Warn("bulk upload failed", zap.String("collection", "people"), zap.Error(err))
		}
	}
	if len(data.VillageEntries) > 0 {
		if err := d.remote.UpsertVillageEntries(ctx, d.userID, data.VillageEntries); err != nil {
			d.log.Warn("bulk upload failed", zap.String("collection", "village_entries"), zap.Error(err))
		}
	}
	if len(data.CityEntries) > 0 {
		if err := d.remote.UpsertCityEntries(ctx, d.userID, data.CityEntries); err != nil {
			d.log.Warn("bulk upload failed", zap.String("collection", "city_entries"), zap.Error(err))
		}
	}
	if len(data.DairyEntries) > 0 {
		if err := d.remote.UpsertDairyEntries(ctx, d.userID, data.DairyEntries); err != nil {
			d.log.Warn("bulk upload failed", zap.String("collection", "dairy_entries"), zap.Error(err))
		}
	}
	if len(data.Payments) > 0 {
		if err := d.remote.UpsertPayments(ctx, d.userID, data.Payments); err != nil {
			d.log.Warn("bulk upload failed", zap.String("collection", "payments"), zap.Error(err))
		}
	}
}

// SyncData is the explicit reconciliation path behind the retry button: push
// everything held locally, then pull the remote's authoritative copy. The
// remote wins; local edits that never reached it are discarded.
func (d *DataContext) SyncData(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncStatus = SyncSyncing
	if d.probeConnectivity(ctx) {
		d.connectivity = ConnOnline
		d.bulkUpload(ctx, d.data)
		d.load(ctx)
	} else {
		d.connectivity = ConnOffline
	}
	if d.connectivity == ConnOffline {
		d.syncStatus = SyncError
	} else {
		d.syncStatus = SyncIdle
	}
}

// commit persists the already-applied in-memory state to the local cache and
// mirrors the change to the remote store when online. Cache and remote
// failures are logged, never returned: the in-memory value is already the
// truth the caller sees, and divergence is resolved by the next explicit
// sync.
func (d *DataContext) commit(ctx context.Context, op string, push func(context.Context) error) {
	if err := d.cache.Save(d.userID, d.data); err != nil {
		d.log.Warn("local cache write failed", zap.String("op", op), zap.Error(err))
	}
	if d.connectivity != ConnOnline || d.remote == nil {
		return
	}
	if err := push(ctx); err != nil {
		d.log.Warn("remote write failed, local copy kept", zap.String("op", op), zap.Error(err))
	}
}

// AddPerson stores a new person under a fresh id and returns it.
func (d *DataContext) AddPerson(ctx context.Context, p models.Person) models.Person {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.ID = uuid.NewString()
	p.UserID = d.userID
	d.data.People = append(d.data.People, p)
	d.commit(ctx, "person.add", func(ctx context.Context) error {
		return d.remote.InsertPerson(ctx, p)
	})
	return p
}

// UpdatePerson replaces the fields of the person with the given id. The
// second return value is false when no such person exists.
func (d *DataContext) UpdatePerson(ctx context.Context, id string, upd models.Person) (models.Person, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.data.People {
		if d.data.People[i].ID != id {
			continue
		}
		upd.ID = id
		upd.UserID = d.userID
		d.data.People[i] = upd
		d.commit(ctx, "person.update", func(ctx context.Context) error {
			return d.remote.UpdatePerson(ctx, upd)
		})
		return upd, true
	}
	return models.Person{}, false
}

// DeletePerson removes the person with the given id, if present.
func (d *DataContext) DeletePerson(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.data.People[:0]
	for _, p := range d.data.People {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	d.data.People = kept
	d.commit(ctx, "person.delete", func(ctx context.Context) error {
		return d.remote.DeletePerson(ctx, d.userID, id)
	})
}

// FindVillageEntry looks up the single intended entry for (person, date).
func (d *DataContext) FindVillageEntry(personID, date string) (models.VillageEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.data.VillageEntries {
		if e.PersonID == personID && e.Date == date {
			return e, true
		}
	}
	return models.VillageEntry{}, false
}

// AddVillageEntry stores a new village entry under a fresh id.
func (d *DataContext) AddVillageEntry(ctx context.Context, e models.VillageEntry) models.VillageEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.ID = uuid.NewString()
	e.UserID = d.userID
	d.data.VillageEntries = append(d.data.VillageEntries, e)
	d.commit(ctx, "village.add", func(ctx context.Context) error {
		return d.remote.InsertVillageEntry(ctx, e)
	})
	return e
}

// UpdateVillageEntry replaces the fields of the entry with the given id.
func (d *DataContext) UpdateVillageEntry(ctx context.Context, id string, upd models.VillageEntry) (models.VillageEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.data.VillageEntries {
		if d.data.VillageEntries[i].ID != id {
			continue
		}
		upd.ID = id
		upd.UserID = d.userID
		d.data.VillageEntries[i] = upd
		d.commit(ctx, "village.update", func(ctx context.Context) error {
			return d.remote.UpdateVillageEntry(ctx, upd)
		})
		return upd, true
	}
	return models.VillageEntry{}, false
}

// DeleteVillageEntry removes the entry with the given id, if present.
func (d *DataContext) DeleteVillageEntry(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.data.VillageEntries[:0]
	for _, e := range d.data.VillageEntries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	d.data.VillageEntries = kept
	d.commit(ctx, "village.delete", func(ctx context.Context) error {
		return d.remote.DeleteVillageEntry(ctx, d.userID, id)
	})
}

// AddCityEntry stores a new city entry under a fresh id.
func (d *DataContext) AddCityEntry(ctx context.Context, e models.CityEntry) models.CityEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.ID = uuid.NewString()
	e.UserID = d.userID
	d.data.CityEntries = append(d.data.CityEntries, e)
	d.commit(ctx, "city.add", func(ctx context.Context) error {
		return d.remote.InsertCityEntry(ctx, e)
	})
	return e
}

// FindCityEntry looks up the single intended entry for (person, date).
func (d *DataContext) FindCityEntry(personID, date string) (models.CityEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.data.CityEntries {
		if e.PersonID == personID && e.Date == date {
			return e, true
		}
	}
	return models.CityEntry{}, false
}

// UpdateCityEntry replaces the fields of the entry with the given id.
func (d *DataContext) UpdateCityEntry(ctx context.Context, id string, upd models.CityEntry) (models.CityEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.data.CityEntries {
		if d.data.CityEntries[i].ID != id {
			continue
		}
		upd.ID = id
		upd.UserID = d.userID
		d.data.CityEntries[i] = upd
		d.commit(ctx, "city.update", func(ctx context.Context) error {
			return d.remote.UpdateCityEntry(ctx, upd)
		})
		return upd, true
	}
	return models.CityEntry{}, false
}

// DeleteCityEntry removes the entry with the given id, if present.
func (d *DataContext) DeleteCityEntry(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.data.CityEntries[:0]
	for _, e := range d.data.CityEntries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	d.data.CityEntries = kept
	d.commit(ctx, "city.delete", func(ctx context.Context) error {
		return d.remote.DeleteCityEntry(ctx, d.userID, id)
	})
}

// FindDairyEntry looks up the single intended entry for (person, date,
// session).
func (d *DataContext) FindDairyEntry(personID, date, session string) (models.DairyEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.data.DairyEntries {
		if e.PersonID == personID && e.Date == date && e.Session == session {
			return e, true
		}
	}
	return models.DairyEntry{}, false
}

// AddDairyEntry stores a new dairy entry under a fresh id.
func (d *DataContext) AddDairyEntry(ctx context.Context, e models.DairyEntry) models.DairyEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	e.ID = uuid.NewString()
	e.UserID = d.userID
	d.data.DairyEntries = append(d.data.DairyEntries, e)
	d.commit(ctx, "dairy.add", func(ctx context.Context) error {
		return d.remote.InsertDairyEntry(ctx, e)
	})
	return e
}

// UpdateDairyEntry replaces the fields of the entry with the given id.
func (d *DataContext) UpdateDairyEntry(ctx context.Context, id string, upd models.DairyEntry) (models.DairyEntry, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.data.DairyEntries {
		if d.data.DairyEntries[i].ID != id {
			continue
		}
		upd.ID = id
		upd.UserID = d.userID
		d.data.DairyEntries[i] = upd
		d.commit(ctx, "dairy.update", func(ctx context.Context) error {
			return d.remote.UpdateDairyEntry(ctx, upd)
		})
		return upd, true
	}
	return models.DairyEntry{}, false
}

// DeleteDairyEntry removes the entry with the given id, if present.
func (d *DataContext) DeleteDairyEntry(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.data.DairyEntries[:0]
	for _, e := range d.data.DairyEntries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	d.data.DairyEntries = kept
	d.commit(ctx, "dairy.delete", func(ctx context.Context) error {
		return d.remote.DeleteDairyEntry(ctx, d.userID, id)
	})
}

// AddPayment stores a new payment under a fresh id.
func (d *DataContext) AddPayment(ctx context.Context, p models.Payment) models.Payment {
	d.mu.Lock()
	defer d.mu.Unlock()
	p.ID = uuid.NewString()
	p.UserID = d.userID
	d.data.Payments = append(d.data.Payments, p)
	d.commit(ctx, "payment.add", func(ctx context.Context) error {
		return d.remote.InsertPayment(ctx, p)
	})
	return p
}

// UpdatePayment replaces the fields of the payment with the given id.
func (d *DataContext) UpdatePayment(ctx context.Context, id string, upd models.Payment) (models.Payment, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.data.Payments {
		if d.data.Payments[i].ID != id {
			continue
		}
		upd.ID = id
		upd.UserID = d.userID
		d.data.Payments[i] = upd
		d.commit(ctx, "payment.update", func(ctx context.Context) error {
			return d.remote.UpdatePayment(ctx, upd)
		})
		return upd, true
	}
	return models.Payment{}, false
}

// DeletePayment removes the payment with the given id, if present.
func (d *DataContext) DeletePayment(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.data.Payments[:0]
	for _, p := range d.data.Payments {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	d.data.Payments = kept
	d.commit(ctx, "payment.delete", func(ctx context.Context) error {
		return d.remote.DeletePayment(ctx, d.userID, id)
	})
}
