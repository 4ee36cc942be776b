package dmatrix

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dbielich/slate/comm"
	"github.com/dbielich/slate/errtax"
	"github.com/dbielich/slate/tile"
)

// tileKey addresses a tile by its global tile-grid coordinate.
type tileKey struct{ i, j int }

// replicaKey addresses a non-origin replica by coordinate and device.
type replicaKey struct {
	i, j   int
	device tile.Device
}

// options, set via the functional-options pattern (matrix/types.go's
// teacher idiom generalized here).
type options struct {
	owner  OwnerFunc
	kind   Kind
	uplo   Uplo
	diag   Diag
	kl, ku int // Band kind tile-bandwidth, inclusive
}

// Option configures a Matrix at construction time.
type Option func(*options)

// WithOwner overrides the default BlockCyclic ownership function.
func WithOwner(fn OwnerFunc) Option {
	return func(o *options) { o.owner = fn }
}

// WithTriangular restricts storage to one triangle of tiles.
func WithTriangular(uplo Uplo, diag Diag) Option {
	return func(o *options) { o.kind = Triangular; o.uplo = uplo; o.diag = diag }
}

// WithHermitian restricts storage to one triangle of tiles. The other
// triangle is not mirrored: reading one of its tiles returns
// ErrRestrictedTile.
func WithHermitian(uplo Uplo) Option {
	return func(o *options) { o.kind = Hermitian; o.uplo = uplo }
}

// WithSymmetric restricts storage to one triangle of tiles, like
// WithHermitian; the other triangle is not mirrored either.
func WithSymmetric(uplo Uplo) Option {
	return func(o *options) { o.kind = Symmetric; o.uplo = uplo }
}

// WithBand restricts storage to tiles within kl sub-diagonals and ku
// super-diagonals (counted in tile units).
func WithBand(kl, ku int) Option {
	return func(o *options) { o.kind = Band; o.kl, o.ku = kl, ku }
}

// Matrix is a distributed, tile-addressable matrix (spec.md §4.2). One
// process owns each tile under the block-cyclic map; every process may
// additionally hold read-only replicas received via broadcast.
type Matrix[S tile.Scalar] struct {
	mg, ng int // global element extents
	mb, nb int // tile element extents
	Mt, Nt int // tile grid extents

	grid  ProcessGrid
	owner OwnerFunc
	net   comm.Communicator

	kind   Kind
	uplo   Uplo
	diagOp Diag
	kl, ku int

	arenas map[tile.Device]*tile.Arena[S]

	mu       sync.RWMutex
	local    map[tileKey]*tile.Tile[S]
	replicas map[replicaKey]*tile.Tile[S]
	released bool

	batch      []BatchDescriptor
	batchArity int
}

// BatchDescriptor names the operand tiles of one call folded into a
// HostBatch kernel dispatch: one destination tile and the operand
// coordinates it was produced from.
type BatchDescriptor struct {
	I, J     int // destination tile coordinate
	Operands [][2]int
}

// New constructs a Matrix of mg x ng elements tiled mb x nb over grid,
// transported by net. The host arena is created automatically; device
// arenas are added with AddDeviceArena.
func New[S tile.Scalar](mg, ng, mb, nb int, grid ProcessGrid, net comm.Communicator, opts ...Option) (*Matrix[S], error) {
	if mg <= 0 || ng <= 0 || mb <= 0 || nb <= 0 {
		return nil, ErrInvalidShape
	}
	if grid.P <= 0 || grid.Q <= 0 {
		return nil, ErrInvalidGrid
	}

	cfg := options{owner: BlockCyclic, kind: General}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Matrix[S]{
		mg: mg, ng: ng, mb: mb, nb: nb,
		Mt: ceilDiv(mg, mb), Nt: ceilDiv(ng, nb),
		grid: grid, owner: cfg.owner, net: net,
		kind: cfg.kind, uplo: cfg.uplo, diagOp: cfg.diag, kl: cfg.kl, ku: cfg.ku,
		arenas:   map[tile.Device]*tile.Arena[S]{tile.HostDevice: tile.NewArena[S](tile.HostDevice, 0)},
		local:    make(map[tileKey]*tile.Tile[S]),
		replicas: make(map[replicaKey]*tile.Tile[S]),
	}

	return m, nil
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// AddDeviceArena registers an Arena for an accelerator device, bounded to
// limit elements (0 means unbounded). Device 0..N are round-robined across
// by the kernel package's target dispatcher; dmatrix only needs to know
// where to allocate replicas requested on that device.
func (m *Matrix[S]) AddDeviceArena(device tile.Device, limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arenas[device] = tile.NewArena[S](device, limit)
}

// Arena returns the Arena backing device, if one has been registered via
// AddDeviceArena or ReserveDeviceWorkspace.
func (m *Matrix[S]) Arena(device tile.Device) (*tile.Arena[S], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.arenas[device]

	return a, ok
}

// Rank returns this process's rank in the underlying communicator.
func (m *Matrix[S]) Rank() comm.Rank { return m.net.Rank() }

// Shape returns the matrix's tile-grid extents (Mt, Nt).
func (m *Matrix[S]) Shape() (int, int) { return m.Mt, m.Nt }

// TileShape returns the actual (possibly ragged) extent of tile (i,j).
func (m *Matrix[S]) TileShape(i, j int) (int, int, error) {
	if i < 0 || i >= m.Mt || j < 0 || j >= m.Nt {
		return 0, 0, ErrOutOfRange
	}
	rows := m.mb
	if last := m.mg - i*m.mb; last < rows {
		rows = last
	}
	cols := m.nb
	if last := m.ng - j*m.nb; last < cols {
		cols = last
	}

	return rows, cols, nil
}

// Owner returns the (prow, pcol) grid coordinate that owns tile (i,j).
func (m *Matrix[S]) Owner(i, j int) (int, int) {
	return m.owner(i, j, m.grid.P, m.grid.Q)
}

// OwnerRank returns the flattened rank that owns tile (i,j).
func (m *Matrix[S]) OwnerRank(i, j int) comm.Rank {
	prow, pcol := m.Owner(i, j)
	return m.grid.RankOf(prow, pcol)
}

// IsLocal reports whether this process owns tile (i,j).
func (m *Matrix[S]) IsLocal(i, j int) bool {
	return m.OwnerRank(i, j) == m.net.Rank()
}

// stores reports whether the matrix's specialization materially stores
// tile (i,j) (spec.md §3: triangular/Hermitian/band restrict storage).
func (m *Matrix[S]) stores(i, j int) bool {
	switch m.kind {
	case Triangular, Hermitian, Symmetric:
		if m.uplo == Upper {
			return j >= i
		}
		return j <= i
	case Band:
		return i-j <= m.kl && j-i <= m.ku
	default:
		return true
	}
}

// LocalTile returns the origin tile at (i,j), lazily allocating and
// zero-initializing it on first access. Returns ErrNotLocal if this
// process does not own (i,j), or ErrRestrictedTile if the specialization
// does not store it.
func (m *Matrix[S]) LocalTile(i, j int) (*tile.Tile[S], error) {
	if i < 0 || i >= m.Mt || j < 0 || j >= m.Nt {
		return nil, ErrOutOfRange
	}
	if !m.IsLocal(i, j) {
		return nil, ErrNotLocal
	}
	if !m.stores(i, j) {
		return nil, ErrRestrictedTile
	}

	key := tileKey{i, j}

	m.mu.RLock()
	t, ok := m.local[key]
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.local[key]; ok {
		return t, nil
	}
	rows, cols, err := m.TileShape(i, j)
	if err != nil {
		return nil, err
	}
	t, err = m.arenas[tile.HostDevice].Allocate(rows, cols, tile.ColumnMajor)
	if err != nil {
		if errors.Is(err, tile.ErrArenaExhausted) {
			return nil, fmt.Errorf("dmatrix: allocate local tile (%d,%d): %w: %w", i, j, err, errtax.ErrOutOfMemory)
		}
		return nil, fmt.Errorf("dmatrix: allocate local tile (%d,%d): %w", i, j, err)
	}
	m.local[key] = t

	return t, nil
}

// Replica returns a read-only tile for (i,j) on device: the origin if
// this process owns it and device is the host, otherwise the last
// replica recorded for that device. Returns ErrNoReplica if neither
// exists yet.
func (m *Matrix[S]) Replica(i, j int, device tile.Device) (*tile.Tile[S], error) {
	if m.IsLocal(i, j) && device == tile.HostDevice {
		return m.LocalTile(i, j)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.replicas[replicaKey{i, j, device}]
	if !ok {
		return nil, ErrNoReplica
	}

	return t, nil
}

// SetReplica records t as the replica for (i,j) on its own device,
// overwriting any previous replica there.
func (m *Matrix[S]) SetReplica(i, j int, t *tile.Tile[S]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replicas[replicaKey{i, j, t.Device()}] = t
}

// Sub returns a MatrixView over the tile range [i0,i1) x [j0,j1).
func (m *Matrix[S]) Sub(i0, i1, j0, j1 int) (*MatrixView[S], error) {
	if i0 < 0 || j0 < 0 || i0 > i1 || j0 > j1 || i1 > m.Mt || j1 > m.Nt {
		return nil, ErrBadViewBounds
	}

	return &MatrixView[S]{parent: m, i0: i0, i1: i1, j0: j0, j1: j1, trans: NoTrans}, nil
}

// TileBcast broadcasts tile (i,j) from its owner to every process that
// owns at least one tile of dest. Every process in the communicator must
// call TileBcast with identical arguments; the function determines its
// own role (sender, receiver, or bystander) from its own rank. An empty
// destination set is a documented no-op (spec.md §9, Open Question).
func (m *Matrix[S]) TileBcast(ctx context.Context, i, j int, dest *MatrixView[S], tag comm.Tag) error {
	destRanks := dest.DestinationRanks()
	if len(destRanks) == 0 {
		return nil
	}

	owner := m.OwnerRank(i, j)
	self := m.net.Rank()

	if self == owner {
		t, err := m.LocalTile(i, j)
		if err != nil {
			return err
		}
		payload, err := marshalTile(t)
		if err != nil {
			return err
		}
		others := make([]comm.Rank, 0, len(destRanks))
		for _, r := range destRanks {
			if r != owner {
				others = append(others, r)
			}
		}
		if len(others) == 0 {
			return nil
		}

		if err := m.net.Multicast(ctx, tag, owner, others, payload); err != nil {
			if errors.Is(err, comm.ErrCommunicationFailure) {
				return fmt.Errorf("dmatrix: broadcast tile (%d,%d): %w: %w", i, j, err, errtax.ErrCommunicationFailure)
			}
			return err
		}

		return nil
	}

	wantsIt := false
	for _, r := range destRanks {
		if r == self {
			wantsIt = true
			break
		}
	}
	if !wantsIt {
		return nil
	}

	payload, err := m.net.Recv(ctx, tag, owner)
	if err != nil {
		if errors.Is(err, comm.ErrCommunicationFailure) {
			return fmt.Errorf("dmatrix: recv tile (%d,%d) from %d: %w: %w", i, j, owner, err, errtax.ErrCommunicationFailure)
		}
		return fmt.Errorf("dmatrix: recv tile (%d,%d) from %d: %w", i, j, owner, err)
	}
	t, err := unmarshalTile[S](payload, tile.HostDevice)
	if err != nil {
		return err
	}
	m.SetReplica(i, j, t)

	return nil
}

// BcastRecord is one entry of a coalesced broadcast batch: tile (SrcI,
// SrcJ) published to every process touched by Dest under Tag.
type BcastRecord[S tile.Scalar] struct {
	SrcI, SrcJ int
	Dest       *MatrixView[S]
	Tag        comm.Tag
}

// ListBcast runs a batch of broadcasts sequentially.
func (m *Matrix[S]) ListBcast(ctx context.Context, records []BcastRecord[S]) error {
	for _, r := range records {
		if err := m.TileBcast(ctx, r.SrcI, r.SrcJ, r.Dest, r.Tag); err != nil {
			return err
		}
	}

	return nil
}

// ListBcastMT runs a batch of broadcasts concurrently, one goroutine per
// record. Tags must be pairwise disjoint across the batch (spec.md §4.3)
// so concurrent delivery cannot cross-wire payloads.
func (m *Matrix[S]) ListBcastMT(ctx context.Context, records []BcastRecord[S]) error {
	errs := make([]error, len(records))
	var wg sync.WaitGroup
	for idx, r := range records {
		wg.Add(1)
		go func(idx int, r BcastRecord[S]) {
			defer wg.Done()
			errs[idx] = m.TileBcast(ctx, r.SrcI, r.SrcJ, r.Dest, r.Tag)
		}(idx, r)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

// TileUpdateOrigin pulls a device replica's modified bytes back to the
// host origin tile and clears the device copy's modified flag.
func (m *Matrix[S]) TileUpdateOrigin(i, j int, device tile.Device) error {
	origin, err := m.LocalTile(i, j)
	if err != nil {
		return err
	}
	m.mu.RLock()
	repl, ok := m.replicas[replicaKey{i, j, device}]
	m.mu.RUnlock()
	if !ok {
		return ErrNoReplica
	}
	if !repl.Modified() {
		return nil
	}
	if err := tile.CopyTo(origin, repl); err != nil {
		return err
	}
	repl.ClearModified()

	return nil
}

// TileUpdateAllOrigin runs TileUpdateOrigin over every local tile's
// known device replicas.
func (m *Matrix[S]) TileUpdateAllOrigin() error {
	m.mu.RLock()
	keys := make([]tileKey, 0, len(m.local))
	for k := range m.local {
		keys = append(keys, k)
	}
	devices := make([]tile.Device, 0, len(m.arenas))
	for d := range m.arenas {
		if d != tile.HostDevice {
			devices = append(devices, d)
		}
	}
	m.mu.RUnlock()

	for _, k := range keys {
		for _, d := range devices {
			if err := m.TileUpdateOrigin(k.i, k.j, d); err != nil && err != ErrNoReplica {
				return err
			}
		}
	}

	return nil
}

// ReserveDeviceWorkspace ensures an Arena exists for device. If none is
// registered it creates one with no element limit, so allocations from
// it never report ErrArenaExhausted; an already registered arena is left
// unchanged. The tiles argument does not affect the arena's size.
func (m *Matrix[S]) ReserveDeviceWorkspace(device tile.Device, tiles int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.arenas[device]; !ok {
		m.arenas[device] = tile.NewArena[S](device, 0)
	}
}

// AllocateBatchArrays preallocates the scheduler-visible batch
// descriptor array: bs call slots, each recording up to k operand tile
// coordinates. A HostBatch kernel call that folds bs independent
// trsm/gemm calls into one pass (e.g. trailingGemm's per-iteration
// sweep over the trailing block) calls this once before the sweep so
// RecordBatchDescriptor never grows the slice mid-batch.
func (m *Matrix[S]) AllocateBatchArrays(bs, k int) error {
	if bs < 0 || k < 0 {
		return ErrInvalidBatchSize
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batch = make([]BatchDescriptor, 0, bs)
	m.batchArity = k

	return nil
}

// RecordBatchDescriptor appends one destination-tile/operand record to
// the preallocated batch array. Reports false without recording if the
// array was never allocated, is already full, or operands does not
// match the arity passed to AllocateBatchArrays (0 means unchecked), so
// a caller can fall back to issuing the kernel call immediately instead.
func (m *Matrix[S]) RecordBatchDescriptor(i, j int, operands ...[2]int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.batch) == cap(m.batch) {
		return false
	}
	if m.batchArity != 0 && len(operands) != m.batchArity {
		return false
	}
	m.batch = append(m.batch, BatchDescriptor{I: i, J: j, Operands: operands})

	return true
}

// BatchDescriptors returns a copy of the descriptors recorded since the
// last AllocateBatchArrays call.
func (m *Matrix[S]) BatchDescriptors() []BatchDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BatchDescriptor, len(m.batch))
	copy(out, m.batch)

	return out
}

// DropReplica frees a single (i,j) replica on device, if one exists,
// returning its buffer to device's arena. A no-op if no such replica is
// held. Used by the lu driver's per-iteration device-target release step
// (spec.md §4.6 step 6) to drop holds on panel tiles that will not be
// referenced again, without clearing every other device's workspace.
func (m *Matrix[S]) DropReplica(i, j int, device tile.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := replicaKey{i, j, device}
	t, ok := m.replicas[key]
	if !ok {
		return nil
	}
	arena, ok := m.arenas[device]
	if !ok {
		return nil
	}
	if err := arena.Free(t); err != nil && err != tile.ErrForeignTile {
		return err
	}
	delete(m.replicas, key)

	return nil
}

// ClearWorkspace frees every non-origin replica this process holds,
// returning their buffers to their arenas' free lists.
func (m *Matrix[S]) ClearWorkspace() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.replicas {
		arena, ok := m.arenas[t.Device()]
		if !ok {
			continue
		}
		if err := arena.Free(t); err != nil && err != tile.ErrForeignTile {
			return err
		}
		delete(m.replicas, k)
	}

	return nil
}

// Release marks the matrix released; MatrixViews created from it will
// reject further use (invariant I4: a sub-matrix view never outlives its
// parent).
func (m *Matrix[S]) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = true
}

func (m *Matrix[S]) isReleased() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.released
}
