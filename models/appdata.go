package models

// AppData is the aggregate root: every collection a user owns, kept together
// because it is persisted to the local cache as one document and reconciled
// against the remote store as one unit.
type AppData struct {
	People         []Person       `json:"people"`
	VillageEntries []VillageEntry `json:"villageEntries"`
	CityEntries    []CityEntry    `json:"cityEntries"`
	DairyEntries   []DairyEntry   `json:"dairyEntries"`
	Payments       []Payment      `json:"payments"`
}

// Empty reports whether no collection holds any record.
func (d AppData) Empty() bool {
	return len(d.People) == 0 &&
		len(d.VillageEntries) == 0 &&
		len(d.CityEntries) == 0 &&
		len(d.DairyEntries) == 0 &&
		len(d.Payments) == 0
}

// Clone returns a copy whose slices do not alias the receiver's. Records are
// plain values, so copying the slices is enough.
func (d AppData) Clone() AppData {
	out := AppData{
		People:         make([]Person, len(d.People)),
		VillageEntries: make([]VillageEntry, len(d.VillageEntries)),
		CityEntries:    make([]CityEntry, len(d.CityEntries)),
		DairyEntries:   make([]DairyEntry, len(d.DairyEntries)),
		Payments:       make([]Payment, len(d.Payments)),
	}
	copy(out.People, d.People)
	copy(out.VillageEntries, d.VillageEntries)
	copy(out.CityEntries, d.CityEntries)
	copy(out.DairyEntries, d.DairyEntries)
	copy(out.Payments, d.Payments)
	return out
}
