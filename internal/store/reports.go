package store

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	"gopkg.in/yaml.v3"

	"github.com/hsiuhsiu/hegossip-go/internal/experiment"
)

const reportPrefix = "report/"

// ErrNotFound is returned when no report has the requested id.
var ErrNotFound = errors.New("store: report not found")

// ReportStore keeps experiment reports as YAML under report/<uuid>.
type ReportStore struct {
	db *LevelDB
}

// NewReportStore creates and returns a new ReportStore instance
func NewReportStore(db *LevelDB) *ReportStore {
	return &ReportStore{db: db}
}

// Open opens the LevelDB at path and wraps it in a ReportStore.
func Open(path string) (*ReportStore, error) {
	db, err := NewLevelDB(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return NewReportStore(db), nil
}

// Close closes the underlying database.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Put stores r and returns its id. An empty ID is filled with a new UUID and
// a zero CreatedAt with the current time.
func (s *ReportStore) Put(r experiment.Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("store: encode report: %w", err)
	}
	if err := s.db.Put(key(r.ID), data); err != nil {
		return "", fmt.Errorf("store: put report %s: %w", r.ID, err)
	}
	return r.ID, nil
}

// Get returns the report with the given id, or ErrNotFound.
func (s *ReportStore) Get(id string) (experiment.Report, error) {
	data, err := s.db.Get(key(id))
	if errors.Is(err, leveldb.ErrNotFound) {
		return experiment.Report{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return experiment.Report{}, fmt.Errorf("store: get report %s: %w", id, err)
	}
	var r experiment.Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return experiment.Report{}, fmt.Errorf("store: decode report %s: %w", id, err)
	}
	return r, nil
}

// List returns every stored report, oldest first.
func (s *ReportStore) List() ([]experiment.Report, error) {
	iter := s.db.NewPrefixIterator([]byte(reportPrefix))
	defer iter.Release()

	var reports []experiment.Report
	for iter.Next() {
		var r experiment.Report
		if err := yaml.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", iter.Key(), err)
		}
		reports = append(reports, r)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(reports, func(a, b experiment.Report) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return reports, nil
}

// Latest returns the most recently created report, or ErrNotFound.
func (s *ReportStore) Latest() (experiment.Report, error) {
	reports, err := s.List()
	if err != nil {
		return experiment.Report{}, err
	}
	if len(reports) == 0 {
		return experiment.Report{}, ErrNotFound
	}
	return reports[len(reports)-1], nil
}

// Delete removes the report with the given id.
func (s *ReportStore) Delete(id string) error {
	return s.db.Delete(key(id))
}

func key(id string) []byte {
	return []byte(reportPrefix + id)
}
