package registry

import (
	"fmt"
	"sync"

	"github.com/flexps/paramserver/errors"
	"github.com/flexps/paramserver/logger"
	"github.com/flexps/paramserver/message"
	"github.com/flexps/paramserver/model"
)

const (
	// ErrUnknownTable is fatal: a Message named a table_id the registry
	// never created. There is no recovery path other than the caller
	// fixing whatever routed the message here.
	ErrUnknownTable errors.Code = "UnknownTable"
	// ErrMixedIDModes resolves the spec's open question: a registry may
	// use explicit table ids or auto-assigned ones, never both, since
	// mixing them risks an auto-assigned id later colliding with one a
	// caller picks explicitly.
	ErrMixedIDModes errors.Code = "MixedTableIDModes"
)

type idMode int

const (
	idModeUnset idMode = iota
	idModeExplicit
	idModeAuto
)

// Registry is the per-process table_id -> model.Model dispatcher. One
// Registry is shared by every server thread in a process; CreateTable/
// CreateTableAuto may be called from any goroutine, but Dispatch assumes
// its caller serializes calls per table_id the same way the original
// one-thread-per-instance design did (SPEC_FULL.md §5).
type Registry struct {
	mu      sync.Mutex
	tables  map[uint32]model.Model
	nextID  uint32
	mode    idMode
	catalog *Catalog
	metrics *Metrics
	replies model.ReplyQueue
	dataDir string
	log     logger.Logger
}

// Config bundles Registry construction parameters.
type Config struct {
	Catalog *Catalog // nil disables persistence; tables live in memory only
	Metrics *Metrics // nil disables metrics
	Replies model.ReplyQueue
	DataDir string
	Log     logger.Logger
}

// New constructs an empty Registry. Use Replay to restore tables from an
// existing catalog.
func New(cfg Config) *Registry {
	log := cfg.Log
	if log == nil {
		log = logger.NopLogger
	}
	return &Registry{
		tables:  make(map[uint32]model.Model),
		catalog: cfg.Catalog,
		metrics: cfg.Metrics,
		replies: cfg.Replies,
		dataDir: cfg.DataDir,
		log:     log.WithPrefix("registry"),
	}
}

// Replay recreates every table recorded in the registry's catalog, in
// catalog key order, and moves the next auto-assigned id past the highest
// table_id seen. It does not set an id-assignment mode; the first
// CreateTable or CreateTableAuto call after it does. Call this once at
// process start, before serving any Messages.
func (r *Registry) Replay() error {
	if r.catalog == nil {
		return nil
	}
	entries, err := r.catalog.LoadAll()
	if err != nil {
		return errors.Wrap(err, "loading catalog")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.tables[e.TableID] = r.build(e.TableID, e.Params)
		if e.TableID >= r.nextID {
			r.nextID = e.TableID + 1
		}
	}
	r.log.Infof("replayed %d tables from catalog", len(entries))
	return nil
}

func (r *Registry) build(tableID uint32, p TableParams) model.Model {
	return newModel(tableID, p, model.Config{
		Replies: r.replies,
		DataDir: r.dataDir,
		Log:     r.log,
	})
}

// CreateTable creates a table under an explicit id. It is a programming
// error to mix this with CreateTableAuto on the same Registry, or to reuse
// an id already in use.
func (r *Registry) CreateTable(tableID uint32, p TableParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == idModeAuto {
		return errors.New(ErrMixedIDModes, "CreateTable: this registry has already assigned table ids automatically")
	}
	if _, exists := r.tables[tableID]; exists {
		return errors.Errorf("CreateTable: table %d already exists", tableID)
	}
	r.mode = idModeExplicit
	return r.createLocked(tableID, p)
}

// CreateTableAuto creates a table under a registry-assigned id and returns
// it. It is a programming error to mix this with CreateTable on the same
// Registry.
func (r *Registry) CreateTableAuto(p TableParams) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == idModeExplicit {
		return 0, errors.New(ErrMixedIDModes, "CreateTableAuto: this registry has already accepted explicit table ids")
	}
	r.mode = idModeAuto
	tableID := r.nextID
	if err := r.createLocked(tableID, p); err != nil {
		return 0, err
	}
	r.nextID++
	return tableID, nil
}

func (r *Registry) createLocked(tableID uint32, p TableParams) error {
	if r.catalog != nil {
		if err := r.catalog.Put(tableID, p); err != nil {
			return err
		}
	}
	r.tables[tableID] = r.build(tableID, p)
	return nil
}

// Dispatch routes msg to the table it names. Add/AddChunk/Get/GetChunk/
// Clock/ResetWorker are all handled here based on msg.Op; an unrecognized
// table_id is fatal, since it means a caller referenced a table that was
// never created or was dropped without telling this registry.
func (r *Registry) Dispatch(msg message.Message) error {
	r.mu.Lock()
	m, ok := r.tables[msg.TableID]
	r.mu.Unlock()
	if !ok {
		return errors.New(ErrUnknownTable, fmt.Sprintf("Dispatch: no table %d", msg.TableID))
	}

	switch msg.Op {
	case message.Add, message.AddChunk:
		m.Add(msg)
	case message.Get, message.GetChunk:
		m.Get(msg)
	case message.Clock:
		m.Clock(msg)
	case message.ResetWorker:
		m.ResetWorker(msg)
	default:
		return errors.Errorf("Dispatch: table %d: unrecognized op %v", msg.TableID, msg.Op)
	}

	if r.metrics != nil {
		r.metrics.observe(fmt.Sprint(msg.TableID), msg.Op.String(), m.MinClock(), m.PendingDepth())
	}
	return nil
}

// DropTable removes a table from the registry and its catalog, if any.
// There is no way to resurrect a dropped table's state; callers that want
// it back must have taken their own snapshot via the table's Dump.
func (r *Registry) DropTable(tableID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[tableID]; !ok {
		return errors.New(ErrUnknownTable, fmt.Sprintf("DropTable: no table %d", tableID))
	}
	delete(r.tables, tableID)
	if r.catalog != nil {
		return r.catalog.Delete(tableID)
	}
	return nil
}
