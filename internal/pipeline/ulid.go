package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Stored extraction revisions are ULIDs: a 48-bit millisecond timestamp and
// 80 bits of entropy, Crockford Base32 encoded into 26 characters. The first
// two entropy bytes carry a per-millisecond sequence so revisions minted in
// the same millisecond still sort in creation order.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var revisions struct {
	sync.Mutex
	ms  uint64
	seq uint16
}

func generateULID() string {
	revisions.Lock()
	defer revisions.Unlock()

	ms := uint64(time.Now().UnixMilli())
	if ms <= revisions.ms {
		ms = revisions.ms
		revisions.seq++
	} else {
		revisions.ms = ms
		revisions.seq = 0
	}

	var id [16]byte
	var stamp [8]byte
	binary.BigEndian.PutUint64(stamp[:], ms)
	copy(id[:6], stamp[2:])
	_, _ = rand.Read(id[8:])
	binary.BigEndian.PutUint16(id[6:8], revisions.seq)

	return encodeCrockford(id)
}

// encodeCrockford writes the 128-bit id as 26 five-bit groups. The id is
// treated as a 130-bit number with two leading zero bits.
func encodeCrockford(id [16]byte) string {
	var out [26]byte
	for i := range out {
		var v byte
		for bit := i*5 - 2; bit < i*5+3; bit++ {
			v <<= 1
			if bit >= 0 && id[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}
