// Package registry implements the per-process table dispatcher: the
// table_id -> model.Model map every incoming Message is routed through, a
// bbolt-backed catalog that replays table-creation parameters across
// restarts, and the Prometheus collectors that expose tracker/buffer state
// for monitoring.
//
// Grounded on flexps's server-level table registration (referenced by
// server/abstract_model.hpp's server_id_/table_id_ fields, inferred since
// the registrar itself wasn't part of the retrieved source) and, for the
// catalog's storage engine, featurebase's boltdb package (same bolt-family
// API surface, bbolt rather than the unmaintained boltdb/bolt fork).
package registry

import (
	"github.com/flexps/paramserver/model"
	"github.com/flexps/paramserver/storage"
)

// Consistency names the per-table consistency rule a registry instantiates
// a Model from.
type Consistency int

const (
	ASP Consistency = iota
	BSP
	SSP
	BSPResetAdd
)

func (c Consistency) String() string {
	switch c {
	case ASP:
		return "asp"
	case BSP:
		return "bsp"
	case SSP:
		return "ssp"
	case BSPResetAdd:
		return "bsp_reset_add"
	default:
		return "unknown"
	}
}

// Kind names the storage backend a table is created with.
type Kind int

const (
	MapKind Kind = iota
	VectorKind
)

func (k Kind) String() string {
	if k == VectorKind {
		return "vector"
	}
	return "map"
}

// TableParams is everything needed to recreate a table: either fresh, or by
// replaying the catalog at process start. It is also what gets persisted to
// the catalog, so changing its shape is a storage-format change.
type TableParams struct {
	Consistency  Consistency
	Storage      Kind
	ChunkSize    uint32
	RangeBegin   storage.Key // VectorKind only
	RangeEnd     storage.Key // VectorKind only
	Staleness    int         // SSP only
	DumpInterval int
}

func newStorage(p TableParams) storage.Storage {
	switch p.Storage {
	case VectorKind:
		return storage.NewVectorStorage(storage.Range{Begin: p.RangeBegin, End: p.RangeEnd}, p.ChunkSize)
	default:
		return storage.NewMapStorage(p.ChunkSize)
	}
}

func newModel(tableID uint32, p TableParams, cfg model.Config) model.Model {
	cfg.TableID = tableID
	cfg.DumpInterval = p.DumpInterval
	cfg.Store = newStorage(p)
	switch p.Consistency {
	case ASP:
		return model.NewASP(cfg)
	case SSP:
		return model.NewSSP(cfg, p.Staleness)
	case BSPResetAdd:
		return model.NewBSPResetAdd(cfg)
	default:
		return model.NewBSP(cfg)
	}
}
