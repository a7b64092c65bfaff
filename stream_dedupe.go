package tabular

import (
	"context"

	"github.com/zeebo/xxh3"

	"tabular/records"
)

// DedupeRows forwards records from in to out, dropping exact duplicates. Two
// records are duplicates when their field names, order, and rendered values
// all match. Identity is a 64-bit xxh3 over the rendered fields, so the seen
// set costs 8 bytes per distinct row rather than retaining the rows
// themselves (a hash collision would drop a non-duplicate; acceptable for the
// dedupe use case).
//
// onDropped, when non-nil, is called once per dropped record. The seen set
// grows with the number of distinct rows; this stage trades memory for exact
// streaming dedupe and is not suited to unbounded inputs.
func DedupeRows(
	ctx context.Context,
	in <-chan *records.Record,
	out chan<- *records.Record,
	onDropped func(),
) error {
	seen := make(map[uint64]struct{})
	var buf []byte

	for {
		var rec *records.Record
		var ok bool
		select {
		case rec, ok = <-in:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			return nil
		}

		buf = buf[:0]
		for _, k := range rec.Fields() {
			v, _ := rec.Get(k)
			buf = append(buf, k...)
			buf = append(buf, 0x1f)
			buf = append(buf, fieldString(v)...)
			buf = append(buf, 0x1e)
		}
		h := xxh3.Hash(buf)
		if _, dup := seen[h]; dup {
			if onDropped != nil {
				onDropped()
			}
			continue
		}
		seen[h] = struct{}{}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
