package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"milkbook/models"
)

// Remote is the slice of the remote store the sync coordinator depends on.
// Every operation is scoped by the owner key so one user can never read or
// clobber another user's rows. Single-record writes carry the owner inside
// the record itself; the coordinator stamps UserID before calling.
type Remote interface {
	// Ping is the bounded connectivity probe: a lightweight read that
	// succeeds only when the store is reachable.
	Ping(ctx context.Context, userID string) error
	// CountPeople is the existence probe used for first-sync detection.
	CountPeople(ctx context.Context, userID string) (int64, error)

	People(ctx context.Context, userID string) ([]models.Person, error)
	VillageEntries(ctx context.Context, userID string) ([]models.VillageEntry, error)
	CityEntries(ctx context.Context, userID string) ([]models.CityEntry, error)
	DairyEntries(ctx context.Context, userID string) ([]models.DairyEntry, error)
	Payments(ctx context.Context, userID string) ([]models.Payment, error)

	// The Upsert family is one request per collection, keyed by each
	// record's client-generated id: replace on key match.
	UpsertPeople(ctx context.Context, userID string, people []models.Person) error
	UpsertVillageEntries(ctx context.Context, userID string, entries []models.VillageEntry) error
	UpsertCityEntries(ctx context.Context, userID string, entries []models.CityEntry) error
	UpsertDairyEntries(ctx context.Context, userID string, entries []models.DairyEntry) error
	UpsertPayments(ctx context.Context, userID string, payments []models.Payment) error

	InsertPerson(ctx context.Context, p models.Person) error
	UpdatePerson(ctx context.Context, p models.Person) error
	DeletePerson(ctx context.Context, userID, id string) error

	InsertVillageEntry(ctx context.Context, e models.VillageEntry) error
	UpdateVillageEntry(ctx context.Context, e models.VillageEntry) error
	DeleteVillageEntry(ctx context.Context, userID, id string) error

	InsertCityEntry(ctx context.Context, e models.CityEntry) error
	UpdateCityEntry(ctx context.Context, e models.CityEntry) error
	DeleteCityEntry(ctx context.Context, userID, id string) error

	InsertDairyEntry(ctx context.Context, e models.DairyEntry) error
	UpdateDairyEntry(ctx context.Context, e models.DairyEntry) error
	DeleteDairyEntry(ctx context.Context, userID, id string) error

	InsertPayment(ctx context.Context, p models.Payment) error
	UpdatePayment(ctx context.Context, p models.Payment) error
	DeletePayment(ctx context.Context, userID, id string) error
}

// RemoteStore implements Remote on a postgres database through gorm.
type RemoteStore struct {
	db *gorm.DB
}

// NewRemoteStore wraps an open gorm connection.
func NewRemoteStore(db *gorm.DB) *RemoteStore {
	return &RemoteStore{db: db}
}

// upsertByID replaces the row on id conflict, so re-uploading the same
// record is idempotent.
var upsertByID = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	UpdateAll: true,
}

func (r *RemoteStore) Ping(ctx context.Context, userID string) error {
	_, err := r.CountPeople(ctx, userID)
	return err
}

func (r *RemoteStore) CountPeople(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT count(*) FROM (SELECT 1 FROM people WHERE user_id = ? LIMIT 1) t`, userID).
		Scan(&n).Error
	return n, err
}

func (r *RemoteStore) People(ctx context.Context, userID string) ([]models.Person, error) {
	var out []models.Person
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *RemoteStore) VillageEntries(ctx context.Context, userID string) ([]models.VillageEntry, error) {
	var out []models.VillageEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *RemoteStore) CityEntries(ctx context.Context, userID string) ([]models.CityEntry, error) {
	var out []models.CityEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *RemoteStore) DairyEntries(ctx context.Context, userID string) ([]models.DairyEntry, error) {
	var out []models.DairyEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *RemoteStore) Payments(ctx context.Context, userID string) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&out).Error
	return out, err
}

func (r *RemoteStore) UpsertPeople(ctx context.Context, userID string, people []models.Person) error {
	if len(people) == 0 {
		return nil
	}
	for i := range people {
		people[i].UserID = userID
	}
	return r.db.WithContext(ctx).Clauses(upsertByID).Create(&people).Error
}

func (r *RemoteStore) UpsertVillageEntries(ctx context.Context, userID string, entries []models.VillageEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	return r.db.WithContext(ctx).Clauses(upsertByID).Create(&entries).Error
}

func (r *RemoteStore) UpsertCityEntries(ctx context.Context, userID string, entries []models.CityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	return r.db.WithContext(ctx).Clauses(upsertByID).Create(&entries).Error
}

func (r *RemoteStore) UpsertDairyEntries(ctx context.Context, userID string, entries []models.DairyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].UserID = userID
	}
	return r.db.WithContext(ctx).Clauses(upsertByID).Create(&entries).Error
}

func (r *RemoteStore) UpsertPayments(ctx context.Context, userID string, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	for i := range payments {
		payments[i].UserID = userID
	}
	return r.db.WithContext(ctx).Clauses(upsertByID).Create(&payments).Error
}

func (r *RemoteStore) InsertPerson(ctx context.Context, p models.Person) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *RemoteStore) UpdatePerson(ctx context.Context, p models.Person) error {
	return r.db.WithContext(ctx).Model(&models.Person{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Select("*").Omit("id", "user_id", "created_at").Updates(&p).Error
}

func (r *RemoteStore) DeletePerson(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Person{}).Error
}

func (r *RemoteStore) InsertVillageEntry(ctx context.Context, e models.VillageEntry) error {
	return r.db.WithContext(ctx).Create(&e).Error
}

func (r *RemoteStore) UpdateVillageEntry(ctx context.Context, e models.VillageEntry) error {
	return r.db.WithContext(ctx).Model(&models.VillageEntry{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Select("*").Omit("id", "user_id", "created_at").Updates(&e).Error
}

func (r *RemoteStore) DeleteVillageEntry(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.VillageEntry{}).Error
}

func (r *RemoteStore) InsertCityEntry(ctx context.Context, e models.CityEntry) error {
	return r.db.WithContext(ctx).Create(&e).Error
}

func (r *RemoteStore) UpdateCityEntry(ctx context.Context, e models.CityEntry) error {
	return r.db.WithContext(ctx).Model(&models.CityEntry{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Select("*").Omit("id", "user_id", "created_at").Updates(&e).Error
}

func (r *RemoteStore) DeleteCityEntry(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CityEntry{}).Error
}

func (r *RemoteStore) InsertDairyEntry(ctx context.Context, e models.DairyEntry) error {
	return r.db.WithContext(ctx).Create(&e).Error
}

func (r *RemoteStore) UpdateDairyEntry(ctx context.Context, e models.DairyEntry) error {
	return r.db.WithContext(ctx).Model(&models.DairyEntry{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Select("*").Omit("id", "user_id", "created_at").Updates(&e).Error
}

func (r *RemoteStore) DeleteDairyEntry(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.DairyEntry{}).Error
}

func (r *RemoteStore) InsertPayment(ctx context.Context, p models.Payment) error {
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *RemoteStore) UpdatePayment(ctx context.Context, p models.Payment) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND user_id = ?", p.ID, p.UserID).
		Select("*").Omit("id", "user_id", "created_at").Updates(&p).Error
}

func (r *RemoteStore) DeletePayment(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Payment{}).Error
}
