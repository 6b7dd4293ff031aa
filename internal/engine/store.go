package engine

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"
	"time"

	"salesdash/internal/models"

	"github.com/zeebo/xxh3"
)

// RecordStore holds one ingested dataset. It is never mutated after
// NewRecordStore returns; re-ingestion builds a new store.
type RecordStore struct {
	records []models.SalesRecord
	source  string

	// Flat columns used by the filter hot loop
	dateKeys    []int32
	storeIDs    []int32
	categoryIDs []int32

	// Dictionaries (ID -> String), first-seen order
	storeDict    dictionary
	categoryDict dictionary

	minDate, maxDate int // row index, -1 when empty
	fingerprint      uint64
}

type dictionary struct {
	index map[string]int32
	list  []string
}

func newDictionary() dictionary {
	return dictionary{index: make(map[string]int32)}
}

func (d *dictionary) id(s string) int32 {
	if id, ok := d.index[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.index[s] = id
	return id
}

// mask marks the dictionary IDs of the allowed values. Values the dictionary
// has never seen are ignored.
func (d *dictionary) mask(allowed []string) []bool {
	m := make([]bool, len(d.list))
	for _, s := range allowed {
		if id, ok := d.index[s]; ok {
			m[id] = true
		}
	}
	return m
}

// dateKey turns a date into YYYYMMDD so range checks are integer compares.
func dateKey(t time.Time) int32 {
	y, m, d := t.Date()
	k := int64(y)*10000 + int64(m)*100 + int64(d)
	// Saturate years that do not fit; ingestion only yields years 1 to 9999
	return int32(max(min(k, math.MaxInt32), math.MinInt32))
}

// NewRecordStore copies records and dictionary-encodes the filter columns.
func NewRecordStore(records []models.SalesRecord, source string) *RecordStore {
	n := len(records)
	s := &RecordStore{
		records:      make([]models.SalesRecord, n),
		source:       source,
		dateKeys:     make([]int32, n),
		storeIDs:     make([]int32, n),
		categoryIDs:  make([]int32, n),
		storeDict:    newDictionary(),
		categoryDict: newDictionary(),
		minDate:      -1,
		maxDate:      -1,
	}
	copy(s.records, records)

	h := xxh3.New()
	var buf []byte

	for i := range s.records {
		r := &s.records[i]
		k := dateKey(r.OrderDate)
		s.dateKeys[i] = k
		s.storeIDs[i] = s.storeDict.id(r.Store)
		s.categoryIDs[i] = s.categoryDict.id(r.Category)

		if s.minDate < 0 || k < s.dateKeys[s.minDate] {
			s.minDate = i
		}
		if s.maxDate < 0 || k > s.dateKeys[s.maxDate] {
			s.maxDate = i
		}

		buf = appendCanonical(buf[:0], r, k)
		_, _ = h.Write(buf)
	}
	s.fingerprint = h.Sum64()

	return s
}

func appendCanonical(buf []byte, r *models.SalesRecord, k int32) []byte {
	const us, rs = 0x1f, 0x1e
	for _, f := range []string{r.OrderID, r.Store, r.City, string(r.CustomerType), string(r.Gender), r.Category, r.OrderTime} {
		buf = append(buf, f...)
		buf = append(buf, us)
	}
	buf = strconv.AppendFloat(buf, r.UnitPrice, 'g', -1, 64)
	buf = append(buf, us)
	buf = strconv.AppendInt(buf, int64(r.Quantity), 10)
	buf = append(buf, us)
	buf = strconv.AppendFloat(buf, r.TotalPrice, 'g', -1, 64)
	buf = append(buf, us)
	buf = strconv.AppendInt(buf, int64(k), 10)
	buf = append(buf, us)
	buf = strconv.AppendFloat(buf, r.Rating, 'g', -1, 64)
	return append(buf, rs)
}

func (s *RecordStore) Len() int { return len(s.records) }

func (s *RecordStore) Source() string { return s.source }

// Records returns a copy of the stored rows in ingestion order.
func (s *RecordStore) Records() []models.SalesRecord {
	out := make([]models.SalesRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Stores returns the distinct store identifiers in first-seen order.
func (s *RecordStore) Stores() []string {
	return append([]string(nil), s.storeDict.list...)
}

// Categories returns the distinct product categories in first-seen order.
func (s *RecordStore) Categories() []string {
	return append([]string(nil), s.categoryDict.list...)
}

// DateSpan reports the earliest and latest order dates. ok is false for an
// empty store.
func (s *RecordStore) DateSpan() (first, last time.Time, ok bool) {
	if s.minDate < 0 {
		return time.Time{}, time.Time{}, false
	}
	return s.records[s.minDate].OrderDate, s.records[s.maxDate].OrderDate, true
}

// Fingerprint identifies the dataset content; equal datasets hash equal.
func (s *RecordStore) Fingerprint() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], s.fingerprint)
	return hex.EncodeToString(b[:])
}

// DefaultConstraints selects everything: the full date span and every store
// and category observed in the store.
func (s *RecordStore) DefaultConstraints() models.FilterConstraints {
	c := models.FilterConstraints{
		Stores:     s.Stores(),
		Categories: s.Categories(),
	}
	if lo, hi, ok := s.DateSpan(); ok {
		c.Start, c.End = lo, hi
	}
	return c
}

// Filter is the dictionary-encoded equivalent of Filter(s.Records(), c).
func (s *RecordStore) Filter(c models.FilterConstraints) []models.SalesRecord {
	lo, hi := dateKey(c.Start), dateKey(c.End)
	out := make([]models.SalesRecord, 0)
	if lo > hi || len(c.Stores) == 0 || len(c.Categories) == 0 {
		return out
	}

	storeOK := s.storeDict.mask(c.Stores)
	catOK := s.categoryDict.mask(c.Categories)

	keys, sids, cids := s.dateKeys, s.storeIDs, s.categoryIDs
	for i := range s.records {
		k := keys[i]
		if k < lo || k > hi || !storeOK[sids[i]] || !catOK[cids[i]] {
			continue
		}
		out = append(out, s.records[i])
	}
	return out
}

// StoresBetween lists the stores with at least one order in [start, end], in
// first-seen order.
func (s *RecordStore) StoresBetween(start, end time.Time) []string {
	lo, hi := dateKey(start), dateKey(end)
	seen := make([]bool, len(s.storeDict.list))
	out := make([]string, 0, len(seen))
	for i, k := range s.dateKeys {
		if k < lo || k > hi || seen[s.storeIDs[i]] {
			continue
		}
		seen[s.storeIDs[i]] = true
		out = append(out, s.storeDict.list[s.storeIDs[i]])
	}
	return out
}

// CategoriesFor lists the categories with at least one order in [start, end]
// at one of the given stores.
func (s *RecordStore) CategoriesFor(start, end time.Time, stores []string) []string {
	lo, hi := dateKey(start), dateKey(end)
	storeOK := s.storeDict.mask(stores)
	seen := make([]bool, len(s.categoryDict.list))
	out := make([]string, 0, len(seen))
	for i, k := range s.dateKeys {
		cid := s.categoryIDs[i]
		if k < lo || k > hi || !storeOK[s.storeIDs[i]] || seen[cid] {
			continue
		}
		seen[cid] = true
		out = append(out, s.categoryDict.list[cid])
	}
	return out
}
