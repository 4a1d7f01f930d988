package lzdict

import (
	"strings"
	"testing"

	"github.com/NasoohOlabi/stego-side-wing/bitio"
)

func mustCompress(t *testing.T, payload string, d *Dictionary) *Result {
	t.Helper()
	res, err := Compress(payload, d, DefaultParams())
	if err != nil {
		t.Fatalf("Compress(%q) failed: %v", payload, err)
	}
	return res
}

func TestNewFiltersEmptyEntries(t *testing.T) {
	d := New([]string{"", "abc", "", "de"})
	if d.Len() != 2 {
		t.Fatalf("Len = %d, want 2", d.Len())
	}
	if string(d.Entry(0)) != "abc" || string(d.Entry(1)) != "de" {
		t.Errorf("entry order not preserved: %q, %q", string(d.Entry(0)), string(d.Entry(1)))
	}
	if d.MaxEntryLen() != 3 {
		t.Errorf("MaxEntryLen = %d, want 3", d.MaxEntryLen())
	}
}

func TestCompressEmptyPayload(t *testing.T) {
	if _, err := Compress("", New(nil), DefaultParams()); err != ErrEmptyPayload {
		t.Errorf("err = %v, want ErrEmptyPayload", err)
	}
}

func TestStandardModeSingleByte(t *testing.T) {
	res := mustCompress(t, "A", New(nil))
	if res.Method != MethodStandard {
		t.Fatalf("Method = %q, want standard", res.Method)
	}
	if res.Compressed != "001000001" {
		t.Errorf("Compressed = %q, want %q", res.Compressed, "001000001")
	}
	if res.OriginalLength != 8 || res.CompressedLength != 9 {
		t.Errorf("lengths = %d/%d, want 9/8", res.CompressedLength, res.OriginalLength)
	}
	if !res.FellBack() {
		t.Error("FellBack must be set when standard mode is emitted")
	}
	if len(res.References) != 0 {
		t.Errorf("References = %v, want empty", res.References)
	}
}

func TestSingleReferenceWholePayload(t *testing.T) {
	body := "the quick brown fox jumps over the lazy dog"
	d := New([]string{body, "another document entirely"})
	res := mustCompress(t, body, d)
	if res.Method != MethodDictionary {
		t.Fatalf("Method = %q, want dictionary", res.Method)
	}
	want := 1 + 1 + bitio.Width(d.Len()) + bitio.Width(d.EntryLen(0)) + bitio.Width(d.MaxEntryLen())
	if res.CompressedLength != want {
		t.Errorf("CompressedLength = %d, want %d", res.CompressedLength, want)
	}
	if len(res.References) != 1 {
		t.Fatalf("References = %d tokens, want 1", len(res.References))
	}
	ref := res.References[0]
	if ref.Doc == nil || *ref.Doc != 0 || ref.Idx != 0 || ref.Len != len([]rune(body)) {
		t.Errorf("reference = %+v", ref)
	}
	got, err := DecodeBitString(res.Compressed, d, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got != body {
		t.Errorf("round-trip = %q, want %q", got, body)
	}
}

func TestFallbackOnDisjointPayload(t *testing.T) {
	d := New([]string{"aaaa bbbb cccc"})
	res := mustCompress(t, "XYZQW", d)
	if res.Method != MethodStandard {
		t.Errorf("Method = %q, want standard", res.Method)
	}
	if !res.FellBack() {
		t.Error("FellBack not set")
	}
	got, err := DecodeBitString(res.Compressed, d, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got != "XYZQW" {
		t.Errorf("round-trip = %q", got)
	}
}

func TestModeMinimality(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		texts   []string
	}{
		{"shared substring", "hello world, this is a test", []string{"hello world over there", "this is a test of things"}},
		{"repeats", strings.Repeat("abcdef ", 20), []string{"abcdef abcdef abcdef"}},
		{"no overlap", "zzzzyyy", []string{"hello world"}},
		{"unicode", "für die Welt 世界", []string{"für die ganze Welt", "世界 hello"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := New(c.texts)
			res := mustCompress(t, c.payload, d)
			standardBits := 1 + res.OriginalLength
			if res.Method == MethodDictionary && res.CompressedLength >= standardBits {
				t.Errorf("dictionary mode emitted %d bits but standard needs %d", res.CompressedLength, standardBits)
			}
			got, err := DecodeBitString(res.Compressed, d, DefaultParams())
			if err != nil {
				t.Fatal(err)
			}
			if got != c.payload {
				t.Errorf("round-trip = %q, want %q", got, c.payload)
			}
		})
	}
}

func TestDeterminism(t *testing.T) {
	texts := []string{"shared prefix material", "more shared material here"}
	payload := "shared material"
	a := mustCompress(t, payload, New(texts))
	b := mustCompress(t, payload, New(texts))
	if a.Compressed != b.Compressed {
		t.Errorf("equal inputs produced different bitstreams:\n%s\n%s", a.Compressed, b.Compressed)
	}
}

func TestWidthLawOnTokenStream(t *testing.T) {
	texts := []string{"abcdefgh", "ijklmnop"}
	payload := "abcdefgh XY ijklmnop"
	d := New(texts)
	p := DefaultParams()
	res := mustCompress(t, payload, d)
	if res.Method != MethodDictionary {
		t.Skip("payload unexpectedly fell back")
	}
	sum := 1 // mode flag
	pos := 0
	runes := []rune(payload)
	for _, ref := range res.References {
		if ref.Doc == nil {
			sum += 1 + bitio.Width(p.MaxLiteralLen) + 8*bitio.ByteLength(runes[ref.Idx:ref.Idx+ref.Len])
		} else {
			sum += 1 + bitio.Width(d.Len()) + bitio.Width(d.EntryLen(*ref.Doc)) + bitio.Width(d.MaxEntryLen())
		}
		pos += ref.Len
	}
	if pos != len(runes) {
		t.Errorf("token lengths cover %d code points, payload has %d", pos, len(runes))
	}
	if sum != res.CompressedLength {
		t.Errorf("declared widths sum to %d, stream has %d bits", sum, res.CompressedLength)
	}
}

func TestMatchIndexThreshold(t *testing.T) {
	payload := []rune("abcxy")
	d := New([]string{"abc zz abcd"})
	idx := buildMatchIndex(payload, d, DefaultParams())
	// "abc" matches at offsets 0 and 7 with length 3 (> MinMatch 2).
	if len(idx.byPos[0]) != 2 {
		t.Fatalf("candidates at 0 = %d, want 2", len(idx.byPos[0]))
	}
	for _, c := range idx.byPos[0] {
		if c.length != 3 {
			t.Errorf("candidate length = %d, want 3", c.length)
		}
	}
	// "bc" alone is below the savings threshold.
	if len(idx.byPos[1]) != 0 {
		t.Errorf("candidates at 1 = %d, want 0", len(idx.byPos[1]))
	}
}

func TestMatchIndexCandidateCap(t *testing.T) {
	payload := []rune("aaaa")
	d := New([]string{strings.Repeat("a", 300)})
	p := DefaultParams()
	idx := buildMatchIndex(payload, d, p)
	if len(idx.byPos[0]) > p.MaxCandidates {
		t.Errorf("candidates at 0 = %d, cap is %d", len(idx.byPos[0]), p.MaxCandidates)
	}
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	d := New([]string{"abcdefgh"})
	res := mustCompress(t, "abcdefgh", d)
	trimmed := res.Compressed[:len(res.Compressed)-2]
	if _, err := DecodeBitString(trimmed, d, DefaultParams()); err == nil {
		t.Error("expected error for truncated stream")
	}
}

func TestDecodeRejectsReferenceWithEmptyDictionary(t *testing.T) {
	// mode 1, kind 1 with no dictionary to reference.
	if _, err := DecodeBitString("11", New(nil), DefaultParams()); err == nil {
		t.Error("expected error for reference token against empty dictionary")
	}
}

func TestLongLiteralSplitting(t *testing.T) {
	// A leading reference keeps dictionary mode cheaper than standard, so
	// the 600-rune tail is emitted as several literal runs of at most 250.
	payload := "unrelated" + strings.Repeat("x", 600)
	d := New([]string{"unrelated"})
	res := mustCompress(t, payload, d)
	got, err := DecodeBitString(res.Compressed, d, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if got != payload {
		t.Errorf("round-trip mismatch for 600-rune literal payload")
	}
}

func FuzzCompressRoundTrip(f *testing.F) {
	f.Add("hello world")
	f.Add("the quick brown fox")
	f.Add("世界 hello 🚀")
	f.Add("a")
	f.Add(strings.Repeat("pattern ", 40))
	texts := []string{
		"the quick brown fox jumps over the lazy dog",
		"hello world this is ambient carrier text",
		"世界中のニュース記事",
	}
	f.Fuzz(func(t *testing.T, payload string) {
		if payload == "" {
			t.Skip()
		}
		d := New(texts)
		res, err := Compress(payload, d, DefaultParams())
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		buf, nbits, err := bitio.ParseBitString(res.Compressed)
		if err != nil {
			t.Fatalf("emitted bit string unparseable: %v", err)
		}
		got, err := Decode(buf, nbits, d, DefaultParams())
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		// Compression operates on code points; payloads with invalid
		// UTF-8 round-trip through their replacement form.
		want := string([]rune(payload))
		if got != want {
			t.Errorf("round-trip = %q, want %q", got, want)
		}
	})
}
