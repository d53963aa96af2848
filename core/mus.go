package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types persisted in storage. Hand-maintained;
// field order is the wire format, so changes here are breaking.
var (
	IDMUS     = idMUS{}
	VectorMUS = ord.NewSliceSer[float32](varint.Float32)
	TagsMUS   = ord.NewSliceSer[string](ord.String)
	BoostsMUS = ord.NewMapSer[string, float64](ord.String, varint.Float64)
	RecordMUS = recordMUS{}

	ProfileMUS = profileMUS{}
)

var (
	_ mus.Serializer[ID]      = IDMUS
	_ mus.Serializer[Record]  = RecordMUS
	_ mus.Serializer[Profile] = ProfileMUS
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS serializes time.Time as Unix microseconds.
// The zero time is preserved through a sentinel so IsZero survives a round trip.
type timeMUS struct{}

const zeroTimeSentinel = math.MinInt64

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	v := int64(zeroTimeSentinel)
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Marshal(v, bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if v == zeroTimeSentinel {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	v := int64(zeroTimeSentinel)
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Size(v)
}

func (timeMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

var _ mus.Serializer[time.Time] = timeMUS{}

type recordMUS struct{}

func (recordMUS) Marshal(r Record, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Category, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += ord.String.Marshal(r.Body, bs[n:])
	n += TagsMUS.Marshal(r.Tags, bs[n:])
	n += timeMUS{}.Marshal(r.CreatedAt, bs[n:])
	n += timeMUS{}.Marshal(r.UpdatedAt, bs[n:])
	n += timeMUS{}.Marshal(r.DeletedAt, bs[n:])
	n += VectorMUS.Marshal(r.Vector, bs[n:])
	n += varint.Float32.Marshal(r.LexicalWeight, bs[n:])
	return n
}

func (recordMUS) Unmarshal(bs []byte) (r Record, n int, err error) {
	var c int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.Category, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.Title, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.Body, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.Tags, c, err = TagsMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.CreatedAt, c, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.UpdatedAt, c, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.DeletedAt, c, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.Vector, c, err = VectorMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	if r.LexicalWeight, c, err = varint.Float32.Unmarshal(bs[n:]); err != nil {
		return r, n + c, err
	}
	n += c
	return r, n, nil
}

func (recordMUS) Size(r Record) (size int) {
	size = IDMUS.Size(r.Id)
	size += ord.String.Size(r.Category)
	size += ord.String.Size(r.Title)
	size += ord.String.Size(r.Body)
	size += TagsMUS.Size(r.Tags)
	size += timeMUS{}.Size(r.CreatedAt)
	size += timeMUS{}.Size(r.UpdatedAt)
	size += timeMUS{}.Size(r.DeletedAt)
	size += VectorMUS.Size(r.Vector)
	size += varint.Float32.Size(r.LexicalWeight)
	return size
}

type profileMUS struct{}

func (profileMUS) Marshal(p Profile, bs []byte) (n int) {
	n = ord.String.Marshal(p.Name, bs)
	n += varint.Float64.Marshal(p.LexicalWeight, bs[n:])
	n += varint.Float64.Marshal(p.VectorWeight, bs[n:])
	n += varint.Float64.Marshal(p.DampeningK, bs[n:])
	n += varint.Float64.Marshal(p.RecencyWeight, bs[n:])
	n += varint.Int64.Marshal(int64(p.RecencyHalfLife), bs[n:])
	n += BoostsMUS.Marshal(p.CategoryBoosts, bs[n:])
	n += varint.Int.Marshal(p.CandidatesPerSource, bs[n:])
	n += timeMUS{}.Marshal(p.UpdatedAt, bs[n:])
	return n
}

func (profileMUS) Unmarshal(bs []byte) (p Profile, n int, err error) {
	var c int
	if p.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if p.LexicalWeight, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.VectorWeight, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.DampeningK, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.RecencyWeight, c, err = varint.Float64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	var hl int64
	if hl, c, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	p.RecencyHalfLife = time.Duration(hl)
	n += c
	if p.CategoryBoosts, c, err = BoostsMUS.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.CandidatesPerSource, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	if p.UpdatedAt, c, err = (timeMUS{}).Unmarshal(bs[n:]); err != nil {
		return p, n + c, err
	}
	n += c
	return p, n, nil
}

func (profileMUS) Size(p Profile) (size int) {
	size = ord.String.Size(p.Name)
	size += varint.Float64.Size(p.LexicalWeight)
	size += varint.Float64.Size(p.VectorWeight)
	size += varint.Float64.Size(p.DampeningK)
	size += varint.Float64.Size(p.RecencyWeight)
	size += varint.Int64.Size(int64(p.RecencyHalfLife))
	size += BoostsMUS.Size(p.CategoryBoosts)
	size += varint.Int.Size(p.CandidatesPerSource)
	size += timeMUS{}.Size(p.UpdatedAt)
	return size
}

func (profileMUS) Skip(bs []byte) (n int, err error) {
	var c int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	for i := 0; i < 4; i++ {
		if c, err = varint.Float64.Skip(bs[n:]); err != nil {
			return n + c, err
		}
		n += c
	}
	if c, err = varint.Int64.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	if c, err = BoostsMUS.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	if c, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	if c, err = (timeMUS{}).Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	return n, nil
}

func (recordMUS) Skip(bs []byte) (n int, err error) {
	var c int
	if n, err = IDMUS.Skip(bs); err != nil {
		return
	}
	for i := 0; i < 3; i++ {
		if c, err = ord.String.Skip(bs[n:]); err != nil {
			return n + c, err
		}
		n += c
	}
	if c, err = TagsMUS.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	for i := 0; i < 3; i++ {
		if c, err = (timeMUS{}).Skip(bs[n:]); err != nil {
			return n + c, err
		}
		n += c
	}
	if c, err = VectorMUS.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	if c, err = varint.Float32.Skip(bs[n:]); err != nil {
		return n + c, err
	}
	n += c
	return n, nil
}
