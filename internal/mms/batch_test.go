package mms_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/mms/mmstest"
)

func tradingEntry(name string) mms.Entry {
	return mms.Entry{Name: name, Data: []byte(mmstest.TradingIS)}
}

func TestAggregate_MergesInEntryOrder(t *testing.T) {
	agg := mms.NewAggregator(newParser(), mms.WithWorkers(2))
	entries := []mms.Entry{
		{Name: "a.CSV", Data: []byte(mmstest.RooftopActual)},
		tradingEntry("b.CSV"),
		{Name: "c.CSV", Data: []byte(mmstest.RooftopForecast)},
	}

	col := agg.Aggregate(context.Background(), "test.zip", entries)

	var kinds []mms.RecordKind
	for _, r := range col.Records {
		kinds = append(kinds, r.Kind())
	}
	want := []mms.RecordKind{
		mms.KindRooftopPvActual,
		mms.KindInterconnector, mms.KindInterconnector, mms.KindPrice,
		mms.KindRooftopPvForecast,
	}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if col.Entries != 3 || len(col.Failures) != 0 {
		t.Errorf("entries = %d, failures = %v", col.Entries, col.Failures)
	}
	if col.Source != "test.zip" {
		t.Errorf("Source = %q", col.Source)
	}

	counts := col.CountByKind()
	if counts[mms.KindInterconnector] != 2 || counts[mms.KindPrice] != 1 {
		t.Errorf("CountByKind = %v", counts)
	}
}

func TestAggregate_InvalidEntryIsolated(t *testing.T) {
	agg := mms.NewAggregator(newParser())
	entries := []mms.Entry{
		tradingEntry("one.CSV"),
		{Name: "two.CSV", Data: []byte("I,TRADING,PRICE,3\n\xc3\x28\n")},
		tradingEntry("three.CSV"),
	}

	col := agg.Aggregate(context.Background(), "batch", entries)

	if len(col.Failures) != 1 {
		t.Fatalf("got %d failures, want 1: %v", len(col.Failures), col.Failures)
	}
	f := col.Failures[0]
	if f.Entry != "two.CSV" {
		t.Errorf("failure names %q, want two.CSV", f.Entry)
	}
	if !errors.Is(f, mms.ErrEntryFailure) || !errors.Is(f, mms.ErrInvalidText) {
		t.Errorf("failure %v should match ErrEntryFailure and ErrInvalidText", f)
	}
	if len(col.Records) != 6 {
		t.Errorf("got %d records, want 6 from the two good entries", len(col.Records))
	}
	if col.AllFailed() {
		t.Error("AllFailed() = true with two good entries")
	}
}

func TestAggregate_IssuesCarryEntry(t *testing.T) {
	bad := mmstest.Report(
		mmstest.InterconnectorHeader,
		`D,TRADING,INTERCONNECTORRES,2,"2024/03/03 13:35:00",1,X,1,abc,1,1,z`,
	)
	agg := mms.NewAggregator(newParser())
	col := agg.Aggregate(context.Background(), "batch", []mms.Entry{
		tradingEntry("good.CSV"),
		{Name: "bad.CSV", Data: []byte(bad)},
	})

	if len(col.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(col.Issues))
	}
	is := col.Issues[0]
	if is.Entry != "bad.CSV" || is.Line != 2 || is.Code != "FLD003" {
		t.Errorf("issue = %+v", is)
	}
	if !errors.Is(is.Err, mms.ErrFieldType) {
		t.Errorf("issue error %v should match ErrFieldType", is.Err)
	}
}

func TestAggregate_StrictFailsEntry(t *testing.T) {
	bad := mmstest.Report(mmstest.InterconnectorRow)
	agg := mms.NewAggregator(newParser(mms.WithStrict(true)))
	col := agg.Aggregate(context.Background(), "batch", []mms.Entry{{Name: "bad.CSV", Data: []byte(bad)}})

	if !col.AllFailed() {
		t.Fatal("AllFailed() = false, want true")
	}
	var rowErr *mms.RowError
	if !errors.As(col.Failures[0], &rowErr) || !errors.Is(rowErr, mms.ErrNoActiveSchema) {
		t.Errorf("failure = %v, want row error for data before header", col.Failures[0])
	}
}

func TestAggregate_ContainerError(t *testing.T) {
	readErr := errors.New("zip: checksum error")
	agg := mms.NewAggregator(newParser())
	col := agg.Aggregate(context.Background(), "batch", []mms.Entry{
		{Name: "broken.CSV", Err: readErr},
		tradingEntry("ok.CSV"),
	})

	if len(col.Failures) != 1 || !errors.Is(col.Failures[0], readErr) {
		t.Fatalf("Failures = %v, want the container error", col.Failures)
	}
	if len(col.Records) != 3 {
		t.Errorf("got %d records, want 3", len(col.Records))
	}
}

func TestAggregate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := mms.NewAggregator(newParser())
	col := agg.Aggregate(ctx, "batch", []mms.Entry{tradingEntry("a.CSV"), tradingEntry("b.CSV")})

	if !col.AllFailed() {
		t.Fatalf("AllFailed() = false, failures = %v", col.Failures)
	}
	for _, f := range col.Failures {
		if !errors.Is(f, context.Canceled) {
			t.Errorf("failure %v should match context.Canceled", f)
		}
	}
	if got := mms.Describe(col.Failures[0]); got.Code != "REQ001" {
		t.Errorf("Describe code = %q, want REQ001", got.Code)
	}
}

func TestAggregate_Empty(t *testing.T) {
	col := mms.NewAggregator(newParser()).Aggregate(context.Background(), "empty", nil)
	if col.AllFailed() || len(col.Records) != 0 || col.Entries != 0 {
		t.Errorf("empty batch = %+v", col)
	}
}

func TestAggregate_ManyWorkersMatchSerial(t *testing.T) {
	var entries []mms.Entry
	for i := range 20 {
		entries = append(entries, tradingEntry(fmt.Sprintf("e%02d.CSV", i)))
	}

	serial := mms.NewAggregator(newParser(), mms.WithWorkers(1)).Aggregate(context.Background(), "s", entries)
	parallel := mms.NewAggregator(newParser(), mms.WithWorkers(8)).Aggregate(context.Background(), "p", entries)

	if len(serial.Records) != 60 || len(parallel.Records) != 60 {
		t.Fatalf("records = %d / %d, want 60", len(serial.Records), len(parallel.Records))
	}
	if !reflect.DeepEqual(serial.Records, parallel.Records) {
		t.Error("parallel merge differs from serial merge")
	}
	if serial.Bytes != parallel.Bytes {
		t.Errorf("Bytes = %d vs %d", serial.Bytes, parallel.Bytes)
	}
}
