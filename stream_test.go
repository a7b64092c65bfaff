package tabular

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"tabular/records"
)

func TestStreamRowsEmitsInOrder(t *testing.T) {
	input := "id,name\n1,a\n2,b\n3,c\n"
	out := make(chan *records.Record, 8)

	err := StreamRows(context.Background(), io.NopCloser(strings.NewReader(input)), DefaultParseOptions(), out, nil)
	if err != nil {
		t.Fatalf("StreamRows: %v", err)
	}
	close(out)

	recs, _ := CollectRows(context.Background(), out)
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	for i, want := range []float64{1, 2, 3} {
		if v, _ := recs[i].Get("id"); v != want {
			t.Errorf("row %d id = %#v, want %v", i, v, want)
		}
	}
}

func TestStreamRowsPartialOutputBeforeFailure(t *testing.T) {
	input := "id\n1\n2\n\"open\n"
	out := make(chan *records.Record, 8)

	err := StreamRows(context.Background(), io.NopCloser(strings.NewReader(input)), DefaultParseOptions(), out, nil)
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Fatalf("err = %v, want ErrUnterminatedQuote", err)
	}
	close(out)

	recs, _ := CollectRows(context.Background(), out)
	if len(recs) != 2 {
		t.Fatalf("records before failure = %d, want 2", len(recs))
	}
}

// An active repair strategy holds one row of lookahead; a fatal tokenizer
// error must not swallow it.
func TestStreamRowsFlushesLookaheadBeforeFailure(t *testing.T) {
	input := "a,b\n1,2\n3,\"unterminated"
	out := make(chan *records.Record, 8)

	opt := DefaultParseOptions()
	opt.RepairRowShifts = true
	err := StreamRows(context.Background(), io.NopCloser(strings.NewReader(input)), opt, out, nil)
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Fatalf("err = %v, want ErrUnterminatedQuote", err)
	}
	close(out)

	recs, _ := CollectRows(context.Background(), out)
	if len(recs) != 1 {
		t.Fatalf("records before failure = %d, want 1", len(recs))
	}
	if v, _ := recs[0].Get("a"); v != float64(1) {
		t.Errorf("a = %#v, want 1", v)
	}
	if v, _ := recs[0].Get("b"); v != float64(2) {
		t.Errorf("b = %#v, want 2", v)
	}
}

func TestStreamRowsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan *records.Record) // unbuffered, nobody receives
	err := StreamRows(ctx, io.NopCloser(strings.NewReader("a\n1\n2\n")), DefaultParseOptions(), out, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// Chunk boundaries must not be observable: the same input split at every
// position yields identical records, including mid-field, mid-quote, and
// mid-CRLF splits.
func TestParseChunksBoundaryInvariance(t *testing.T) {
	input := "id,note\r\n1,\"multi\nline\"\r\n2,plain\r\n"

	parseAt := func(split int) []*records.Record {
		t.Helper()
		chunks := make(chan []byte, 2)
		chunks <- []byte(input[:split])
		chunks <- []byte(input[split:])
		close(chunks)

		out := make(chan *records.Record, 8)
		if err := ParseChunks(context.Background(), chunks, DefaultParseOptions(), out, nil); err != nil {
			t.Fatalf("split %d: %v", split, err)
		}
		close(out)
		recs, _ := CollectRows(context.Background(), out)
		return recs
	}

	want := parseAt(0)
	if len(want) != 2 {
		t.Fatalf("baseline records = %d, want 2", len(want))
	}
	for split := 1; split < len(input); split++ {
		got := parseAt(split)
		if len(got) != len(want) {
			t.Fatalf("split %d: records = %d, want %d", split, len(got), len(want))
		}
		for i := range want {
			for _, k := range want[i].Fields() {
				wv, _ := want[i].Get(k)
				gv, _ := got[i].Get(k)
				if gv != wv {
					t.Fatalf("split %d row %d field %q: %#v != %#v", split, i, k, gv, wv)
				}
			}
		}
	}
}

func TestStreamEncodeHeaderOnceAndPerRowChunks(t *testing.T) {
	in := make(chan *records.Record, 4)
	in <- rec("a", "1", "b", "2")
	in <- rec("a", "3", "b", "4")
	close(in)

	out := make(chan []byte, 8)
	opt := DefaultSerializeOptions()
	opt.RFC4180 = false
	if err := StreamEncode(context.Background(), in, opt, out); err != nil {
		t.Fatalf("StreamEncode: %v", err)
	}
	close(out)

	var chunks []string
	for c := range out {
		chunks = append(chunks, string(c))
	}
	want := []string{"a,b\n", "1,2\n", "3,4\n"}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %q, want %q", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestStreamEncodeTemplateColumnOrder(t *testing.T) {
	in := make(chan *records.Record, 2)
	in <- rec("a", "1")
	close(in)

	out := make(chan []byte, 4)
	opt := DefaultSerializeOptions()
	opt.RFC4180 = false
	opt.Template = records.Template{"z", "a"}
	if err := StreamEncode(context.Background(), in, opt, out); err != nil {
		t.Fatalf("StreamEncode: %v", err)
	}
	close(out)

	first := string(<-out)
	if first != "z,a\n" {
		t.Fatalf("header = %q", first)
	}
	if row := string(<-out); row != ",1\n" {
		t.Fatalf("row = %q", row)
	}
}

func TestStreamEncodeMaxRecordsDrains(t *testing.T) {
	in := make(chan *records.Record, 8)
	for i := 0; i < 5; i++ {
		in <- rec("a", "x")
	}
	close(in)

	out := make(chan []byte, 16)
	opt := DefaultSerializeOptions()
	opt.IncludeHeaders = false
	opt.MaxRecords = 2
	if err := StreamEncode(context.Background(), in, opt, out); err != nil {
		t.Fatalf("StreamEncode: %v", err)
	}
	close(out)

	n := 0
	for range out {
		n++
	}
	if n != 2 {
		t.Fatalf("encoded chunks = %d, want 2", n)
	}
}

func TestStreamEncodeMaxRecordsHardLimit(t *testing.T) {
	in := make(chan *records.Record, 4)
	in <- rec("a", "1")
	in <- rec("a", "2")
	close(in)

	out := make(chan []byte, 8)
	opt := DefaultSerializeOptions()
	opt.MaxRecords = 1
	opt.HardLimit = true
	err := StreamEncode(context.Background(), in, opt, out)
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *LimitError", err)
	}
}

func TestDedupeRows(t *testing.T) {
	in := make(chan *records.Record, 8)
	in <- rec("a", "1", "b", "2")
	in <- rec("a", "1", "b", "2") // exact duplicate
	in <- rec("b", "2", "a", "1") // same fields, different order: kept
	in <- rec("a", "1", "b", "3")
	close(in)

	out := make(chan *records.Record, 8)
	dropped := 0
	if err := DedupeRows(context.Background(), in, out, func() { dropped++ }); err != nil {
		t.Fatalf("DedupeRows: %v", err)
	}
	close(out)

	recs, _ := CollectRows(context.Background(), out)
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
}

func TestTranscode(t *testing.T) {
	input := "id;name\n1;alice\n2;\"bob;jr\"\n"
	popt := DefaultParseOptions() // auto-detects the semicolon

	sopt := DefaultSerializeOptions()
	sopt.RFC4180 = false

	var sb strings.Builder
	err := Transcode(context.Background(), io.NopCloser(strings.NewReader(input)), popt, sopt, &sb)
	if err != nil {
		t.Fatalf("Transcode: %v", err)
	}
	want := "id,name\n1,alice\n2,bob;jr\n"
	if sb.String() != want {
		t.Fatalf("output = %q, want %q", sb.String(), want)
	}
}

func TestTranscodePropagatesParseFailure(t *testing.T) {
	input := "id\n\"open\n"
	var sb strings.Builder
	err := Transcode(context.Background(), io.NopCloser(strings.NewReader(input)), DefaultParseOptions(), DefaultSerializeOptions(), &sb)
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Fatalf("err = %v, want ErrUnterminatedQuote", err)
	}
}

func TestChunkReaderContextAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chunks := make(chan []byte) // never fed, never closed
	cr := newChunkReader(ctx, chunks)

	done := make(chan error, 1)
	go func() {
		_, err := cr.Read(make([]byte, 16))
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Read did not abort on cancellation")
	}
}
