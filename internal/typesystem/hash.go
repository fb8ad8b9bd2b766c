package typesystem

import (
	"hash/fnv"
	"math/big"
	"strconv"

	"github.com/funvibe/morf/internal/pivot"
)

// Hash is the content hash the interner buckets on.
type Hash = uint32

const goldenRatio = 0x9e3779b9

// HashString is 32-bit FNV-1a over the bytes of s.
func HashString(s string) Hash {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// HashNumber hashes the canonical decimal text of n.
func HashNumber[N int64 | float64](n N) Hash {
	switch v := any(n).(type) {
	case int64:
		return HashString(strconv.FormatInt(v, 10))
	case float64:
		return HashString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return 0
}

func HashBigInt(n *big.Int) Hash {
	return HashString(n.String())
}

// Mix combines two hashes order-sensitively (boost hash_combine).
func Mix(h1, h2 Hash) Hash {
	return h1 ^ (h2 + goldenRatio + (h1 << 6) + (h1 >> 2))
}

// MixAll folds Mix over hs starting from acc. Argument order matters.
func MixAll(acc Hash, hs ...Hash) Hash {
	for _, h := range hs {
		acc = Mix(acc, h)
	}
	return acc
}

// CombineUnordered XORs hs together, so the result does not depend on order.
// Used for namespace entries and union members.
func CombineUnordered(hs ...Hash) Hash {
	var acc Hash
	for _, h := range hs {
		acc ^= h
	}
	return acc
}

// HashPivot hashes p consistently with pivot.Equal: rationals on their
// reduced text, expressions in argument order.
func HashPivot(p pivot.Pivot) Hash {
	switch p := p.(type) {
	case pivot.Rat:
		if !p.Valid() {
			return Mix(HashString("rat!"), HashString(p.String()))
		}
		return Mix(HashString("rat"), HashString(p.String()))
	case pivot.Sym:
		return Mix(HashString("sym"), HashString(p.Name))
	case pivot.Expr:
		h := Mix(HashString("expr"), HashString(p.Op))
		for _, a := range p.Args {
			h = Mix(h, HashPivot(a))
		}
		return h
	}
	return 0
}
