package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/nemweb/internal/mms/mmstest"
)

func mustZip(t *testing.T, files ...mmstest.File) []byte {
	t.Helper()
	data, err := mmstest.Zip(files...)
	if err != nil {
		t.Fatalf("build zip: %v", err)
	}
	return data
}

func TestReadEntries(t *testing.T) {
	data := mustZip(t,
		mmstest.File{Name: "PUBLIC_TRADINGIS_202403031335_0000000413460134.CSV", Body: []byte(mmstest.TradingIS)},
		mmstest.File{Name: "docs/", Body: nil},
		mmstest.File{Name: "README.txt", Body: []byte("hello")},
	)

	entries, err := ReadEntries(data)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "PUBLIC_TRADINGIS_202403031335_0000000413460134.CSV" {
		t.Errorf("entries[0].Name = %q", entries[0].Name)
	}
	if string(entries[0].Data) != mmstest.TradingIS {
		t.Error("entries[0].Data does not match the archived file")
	}
	if entries[1].Name != "README.txt" || entries[1].Err != nil {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestReadEntries_Nested(t *testing.T) {
	inner1 := mustZip(t, mmstest.File{Name: "a.CSV", Body: []byte(mmstest.RooftopActual)})
	inner2 := mustZip(t, mmstest.File{Name: "b.CSV", Body: []byte(mmstest.RooftopForecast)})
	outer := mustZip(t,
		mmstest.File{Name: "PUBLIC_ROOFTOP_1.zip", Body: inner1},
		mmstest.File{Name: "PUBLIC_ROOFTOP_2.ZIP", Body: inner2},
		mmstest.File{Name: "broken.zip", Body: []byte("not a zip")},
	)

	entries, err := ReadEntries(outer)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}

	want := []string{"PUBLIC_ROOFTOP_1.zip/a.CSV", "PUBLIC_ROOFTOP_2.ZIP/b.CSV", "broken.zip"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
	}
	if string(entries[1].Data) != mmstest.RooftopForecast {
		t.Error("nested entry data mismatch")
	}
	if !errors.Is(entries[2].Err, ErrNotArchive) {
		t.Errorf("broken nested zip Err = %v, want ErrNotArchive", entries[2].Err)
	}
}

func TestReadEntries_TooDeep(t *testing.T) {
	data := mustZip(t, mmstest.File{Name: "x.CSV", Body: []byte("C,x")})
	for i := 0; i < maxDepth+1; i++ {
		data = mustZip(t, mmstest.File{Name: "n.zip", Body: data})
	}

	entries, err := ReadEntries(data)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Err == nil {
		t.Fatalf("entries = %+v, want one failed entry", entries)
	}
}

func TestReadEntries_NotZip(t *testing.T) {
	_, err := ReadEntries([]byte("I,TRADING,PRICE,3"))
	if !errors.Is(err, ErrNotArchive) {
		t.Errorf("ReadEntries() error = %v, want ErrNotArchive", err)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.zip")
	if err := os.WriteFile(path, mustZip(t, mmstest.File{Name: "r.CSV", Body: []byte(mmstest.RooftopActual)}), 0o600); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "r.CSV" {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Error("ReadFile() on a missing file should fail")
	}
}
