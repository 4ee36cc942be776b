package dmatrix

// Kind restricts which tiles a Matrix's specialization materially stores
// (spec.md §3: "general (dense), triangular, Hermitian/symmetric, band —
// each restricts which tiles are materially stored").
type Kind int

const (
	// General stores every tile in the shape.
	General Kind = iota
	// Triangular stores only the tiles on or across the diagonal per Uplo.
	Triangular
	// Hermitian stores only the tiles on or across the diagonal per Uplo;
	// tiles of the other triangle are not mirrored, and reading one
	// returns ErrRestrictedTile.
	Hermitian
	// Symmetric is Hermitian's real-valued sibling and restricts storage
	// the same way; it does not mirror the other triangle either.
	Symmetric
	// Band stores only tiles within the matrix's bandwidth.
	Band
)

// Uplo selects which triangle a Triangular/Hermitian/Symmetric matrix
// stores.
type Uplo int

const (
	// Upper stores the tiles on or above the diagonal.
	Upper Uplo = iota
	// Lower stores the tiles on or below the diagonal.
	Lower
)

// Diag selects whether a Triangular matrix's diagonal is implicitly unit
// or explicitly stored.
type Diag int

const (
	// NonUnit stores the diagonal tiles' diagonal entries explicitly.
	NonUnit Diag = iota
	// Unit treats the diagonal as implicitly 1 without storing it.
	Unit
)

// Trans is the composed transpose/conjugate-transpose state of a
// MatrixView. Composition is O(1): transpose(transpose(A)) == A, and
// conjTranspose on a real matrix degenerates to transpose (spec.md §4.2).
type Trans int

const (
	// NoTrans leaves the view's element mapping unchanged.
	NoTrans Trans = iota
	// TransposeOp swaps row/col addressing.
	TransposeOp
	// ConjTransposeOp swaps row/col addressing and conjugates reads.
	ConjTransposeOp
)

// compose returns the Trans that results from applying next on top of an
// already-transposed view whose current state is cur.
func compose(cur, next Trans) Trans {
	// NoTrans composed with anything is a no-op fold.
	if next == NoTrans {
		return cur
	}
	if cur == NoTrans {
		return next
	}
	// Two transposes (of either flavor applied twice) cancel the
	// structural swap; for mixed Transpose/ConjTranspose the conjugate
	// flag is the XOR of the two conjugate bits while the structural
	// swap always cancels on a second application.
	curConj := cur == ConjTransposeOp
	nextConj := next == ConjTransposeOp
	if curConj != nextConj {
		return ConjTransposeOp
	}

	return NoTrans
}
