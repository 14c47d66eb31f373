package registry

import (
	"bytes"
	"encoding/binary"

	"github.com/flexps/paramserver/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	// ErrCatalogWrite is a programming-error-class fatal: the catalog
	// couldn't persist a table's creation parameters, so the in-memory
	// registry and the on-disk record of it have diverged.
	ErrCatalogWrite errors.Code = "CatalogWriteFailed"
)

var tablesBucket = []byte("tables")

// Catalog persists every table's creation parameters to a bbolt database,
// keyed by table_id, so a restarted process can replay its CreateTable
// calls in ascending table_id order. Grounded on featurebase's boltdb
// package's Open/bucket-per-concern style, adapted to bbolt.
type Catalog struct {
	db *bolt.DB
}

// OpenCatalog opens (creating if necessary) the bbolt database at path and
// ensures its tables bucket exists.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tablesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing catalog")
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying bbolt database.
func (c *Catalog) Close() error { return c.db.Close() }

// Put persists tableID's creation parameters, overwriting any prior record.
func (c *Catalog) Put(tableID uint32, p TableParams) error {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, tableID)

	val, err := encodeTableParams(p)
	if err != nil {
		return errors.Wrap(err, "encoding table params")
	}

	if err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).Put(key, val)
	}); err != nil {
		return errors.New(ErrCatalogWrite, err.Error())
	}
	return nil
}

// Delete removes tableID's catalog record, if any.
func (c *Catalog) Delete(tableID uint32) error {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, tableID)
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tablesBucket).Delete(key)
	})
}

// Entry pairs a table_id with the parameters it was created from, for
// replay.
type Entry struct {
	TableID uint32
	Params  TableParams
}

// LoadAll returns every catalog entry, ordered by ascending table_id (the
// bucket's natural key order). That is creation order for auto-assigned
// ids; tables created under explicit ids come back in id order, not in the
// order they were created.
func (c *Catalog) LoadAll() ([]Entry, error) {
	var entries []Entry
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(tablesBucket)
		return b.ForEach(func(k, v []byte) error {
			p, err := decodeTableParams(v)
			if err != nil {
				return errors.Wrapf(err, "decoding table %x", k)
			}
			entries = append(entries, Entry{TableID: binary.BigEndian.Uint32(k), Params: p})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// encodeTableParams writes a fixed-width binary record: consistency(u8),
// storage kind(u8), chunk_size(u32), range_begin(u64), range_end(u64),
// staleness(i32), dump_interval(i32); all big-endian.
func encodeTableParams(p TableParams) ([]byte, error) {
	buf := &bytes.Buffer{}
	fields := []interface{}{
		uint8(p.Consistency),
		uint8(p.Storage),
		p.ChunkSize,
		p.RangeBegin,
		p.RangeEnd,
		int32(p.Staleness),
		int32(p.DumpInterval),
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.BigEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeTableParams(b []byte) (TableParams, error) {
	var p TableParams
	r := bytes.NewReader(b)
	var consistency, storageKind uint8
	var staleness, dumpInterval int32
	for _, f := range []interface{}{
		&consistency,
		&storageKind,
		&p.ChunkSize,
		&p.RangeBegin,
		&p.RangeEnd,
		&staleness,
		&dumpInterval,
	} {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return TableParams{}, err
		}
	}
	p.Consistency = Consistency(consistency)
	p.Storage = Kind(storageKind)
	p.Staleness = int(staleness)
	p.DumpInterval = int(dumpInterval)
	return p, nil
}
