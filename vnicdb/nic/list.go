package nic

import (
	"fmt"
	"iter"
)

// List is an ordered collection of NIC records belonging to one VM.
// NIC names are unique within a list.
type List struct {
	records []Record
}

// NewList creates a List holding the given records in order.
func NewList(records ...Record) (*List, error) {
	l := &List{}
	for _, r := range records {
		err := l.Append(r)
		if err != nil {
			return nil, err
		}
	}

	return l, nil
}

// FromMaps creates a List from serialized records.
func FromMaps(maps []map[string]string) (*List, error) {
	l := &List{}
	for _, m := range maps {
		r, err := FromMap(m)
		if err != nil {
			return nil, err
		}

		err = l.Append(r)
		if err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Len returns the number of records in the list.
func (l *List) Len() int {
	return len(l.records)
}

// Index returns the position of the named NIC.
func (l *List) Index(name string) (int, error) {
	for i, r := range l.records {
		if r.Name == name {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (l *List) checkIndex(i int) error {
	if i < 0 || i >= len(l.records) {
		return fmt.Errorf("%w: index %d", ErrNotFound, i)
	}

	return nil
}

// Append adds a record at the end of the list.
func (l *List) Append(r Record) error {
	if r.Name == "" {
		return fmt.Errorf("%w: record has no name", ErrDuplicateName)
	}

	_, err := l.Index(r.Name)
	if err == nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
	}

	l.records = append(l.records, r)
	return nil
}

// Get returns a copy of the named record.
func (l *List) Get(name string) (Record, error) {
	i, err := l.Index(name)
	if err != nil {
		return Record{}, err
	}

	return l.records[i], nil
}

// GetIndex returns a copy of the record at the given position.
func (l *List) GetIndex(i int) (Record, error) {
	err := l.checkIndex(i)
	if err != nil {
		return Record{}, err
	}

	return l.records[i], nil
}

// Set replaces the named record. The replacement keeps the existing name.
func (l *List) Set(name string, r Record) error {
	i, err := l.Index(name)
	if err != nil {
		return err
	}

	return l.SetIndex(i, r)
}

// SetIndex replaces the record at the given position. The replacement keeps the existing name.
func (l *List) SetIndex(i int, r Record) error {
	err := l.checkIndex(i)
	if err != nil {
		return err
	}

	if r.Name == "" {
		r.Name = l.records[i].Name
	}

	if r.Name != l.records[i].Name {
		return fmt.Errorf("%w: %q to %q", ErrImmutableName, l.records[i].Name, r.Name)
	}

	l.records[i] = r
	return nil
}

// Delete removes the named record.
func (l *List) Delete(name string) error {
	i, err := l.Index(name)
	if err != nil {
		return err
	}

	return l.DeleteIndex(i)
}

// DeleteIndex removes the record at the given position.
func (l *List) DeleteIndex(i int) error {
	err := l.checkIndex(i)
	if err != nil {
		return err
	}

	l.records = append(l.records[:i:i], l.records[i+1:]...)
	return nil
}

// Names returns the NIC names in insertion order.
func (l *List) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, r := range l.records {
			if !yield(r.Name) {
				return
			}
		}
	}
}

// All returns the position and a copy of every record in insertion order.
func (l *List) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range l.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// MACs returns every MAC address set in the list, mapped to the name of the NIC holding it.
func (l *List) MACs() map[string]string {
	macs := map[string]string{}
	for _, r := range l.records {
		if r.MAC != "" {
			macs[r.MAC] = r.Name
		}
	}

	return macs
}

// Merge fills the records of the list from other. Fields already set are
// never overwritten, NICs unknown to the list are appended in other's order.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}

	for _, o := range other.records {
		i, err := l.Index(o.Name)
		if err != nil {
			l.records = append(l.records, o)
			continue
		}

		l.records[i].Fill(o)
	}
}

// Clone returns a deep copy of the list.
func (l *List) Clone() *List {
	records := make([]Record, len(l.records))
	copy(records, l.records)

	return &List{records: records}
}

// Maps returns the serialized form of the list, one map of set fields per NIC.
func (l *List) Maps() []map[string]string {
	maps := make([]map[string]string, 0, len(l.records))
	for _, r := range l.records {
		maps = append(maps, r.Map())
	}

	return maps
}

// Equal compares two lists record by record.
func (l *List) Equal(other *List) bool {
	if l.Len() != other.Len() {
		return false
	}

	for i := range l.records {
		if l.records[i] != other.records[i] {
			return false
		}
	}

	return true
}
