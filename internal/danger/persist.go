package danger

import (
	"fmt"

	"github.com/freeeve/hexwar/api/pkg/savestream"
	"github.com/freeeve/hexwar/api/pkg/world"
)

// Encoder is the ordered stream a cache saves into.
type Encoder interface {
	WriteInt(v int64)
	WritePairs(pairs []savestream.Pair)
}

// Decoder reads what an Encoder wrote, in the same order.
type Decoder interface {
	ReadInt() (int64, error)
	ReadPairs() ([]savestream.Pair, error)
	Remaining() int
}

// Save writes the owner and the attacker memory. Tile data is never saved;
// it is rebuilt on first use after Load.
func (c *Cache) Save(w Encoder) {
	w.WriteInt(int64(c.owner))
	w.WritePairs(toPairs(c.known.sorted()))
	w.WritePairs(toPairs(c.vanished.sorted()))
}

// Load restores what Save wrote and marks the cache for a reload rebuild.
// On error the cache is left as it was.
func (c *Cache) Load(r Decoder) error {
	owner, err := r.ReadInt()
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	known, err := r.ReadPairs()
	if err != nil {
		return fmt.Errorf("load known attackers: %w", err)
	}
	vanished, err := r.ReadPairs()
	if err != nil {
		return fmt.Errorf("load vanished attackers: %w", err)
	}
	if n := r.Remaining(); n != 0 {
		return fmt.Errorf("load: %d bytes after vanished attackers: %w", n, savestream.ErrTrailingData)
	}

	c.owner = world.FactionID(owner)
	c.known = fromPairs(known)
	c.vanished = fromPairs(vanished)
	c.lastRebuiltTurn = reloadTurn
	c.dirty = true
	return nil
}

func toPairs(refs []world.UnitRef) []savestream.Pair {
	out := make([]savestream.Pair, len(refs))
	for i, r := range refs {
		out[i] = savestream.Pair{A: int64(r.Owner), B: int64(r.ID)}
	}
	return out
}

func fromPairs(pairs []savestream.Pair) unitSet {
	s := make(unitSet, len(pairs))
	for _, p := range pairs {
		s[world.UnitRef{Owner: world.FactionID(p.A), ID: world.UnitID(p.B)}] = struct{}{}
	}
	return s
}
