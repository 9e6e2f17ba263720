package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/nemweb/internal/archive"
	"github.com/JonMunkholm/nemweb/internal/ledger"
	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/mms/mmstest"
	"github.com/JonMunkholm/nemweb/internal/mms/tables"
	"github.com/JonMunkholm/nemweb/internal/nemweb"
)

const tradingDir = "/Reports/Current/TradingIS_Reports/"

// fakeNemweb serves a directory listing and the archives it links to.
type fakeNemweb struct {
	archives  map[string][]byte // file name -> zip
	order     []string
	downloads atomic.Int32
}

func newFakeNemweb(t *testing.T) *fakeNemweb {
	t.Helper()
	f := &fakeNemweb{archives: make(map[string][]byte)}
	for _, r := range []struct{ stamp, key string }{
		{"202403031335", "0000000413460134"},
		{"202403031340", "0000000413460407"},
		{"202403031350", "0000000413460679"},
	} {
		name := fmt.Sprintf("PUBLIC_TRADINGIS_%s_%s.zip", r.stamp, r.key)
		data, err := mmstest.Zip(mmstest.File{Name: strings.TrimSuffix(name, ".zip") + ".CSV", Body: []byte(mmstest.TradingIS)})
		require.NoError(t, err)
		f.archives[name] = data
		f.order = append(f.order, name)
	}
	return f
}

func (f *fakeNemweb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == tradingDir {
		var b strings.Builder
		b.WriteString("<html><body><pre>")
		for _, name := range f.order {
			fmt.Fprintf(&b, `<A HREF="%s%s">%s</A><br>`, tradingDir, name, name)
		}
		b.WriteString("</pre></body></html>")
		_, _ = io.WriteString(w, b.String())
		return
	}
	name := strings.TrimPrefix(r.URL.Path, tradingDir)
	data, ok := f.archives[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	f.downloads.Add(1)
	w.Header().Set("Content-Type", "application/x-zip-compressed")
	_, _ = w.Write(data)
}

func newTestService(t *testing.T, fake http.Handler, opts ...Option) *Service {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := nemweb.NewClient(nemweb.ClientConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	agg := mms.NewAggregator(mms.NewParser(tables.Registry()))
	return NewService(client, agg, ledger.NewMemory(), opts...)
}

func TestParseArchive(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler())
	data, err := mmstest.Zip(
		mmstest.File{Name: "a.CSV", Body: []byte(mmstest.TradingIS)},
		mmstest.File{Name: "b.CSV", Body: []byte("\xff\xfe")},
	)
	require.NoError(t, err)

	col, err := svc.ParseArchive(context.Background(), "upload.zip", data)
	require.NoError(t, err)
	assert.Equal(t, "upload.zip", col.Source)
	assert.Len(t, col.Records, 3)
	require.Len(t, col.Failures, 1)
	assert.Equal(t, "b.CSV", col.Failures[0].Entry)
	assert.ErrorIs(t, col.Failures[0], mms.ErrInvalidText)
}

func TestParseArchive_NotZip(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler())
	_, err := svc.ParseArchive(context.Background(), "x.zip", []byte("I,TRADING"))
	assert.ErrorIs(t, err, archive.ErrNotArchive)
}

func TestParseArchive_Busy(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler(), WithLimiter(NewLimiter(1, 20*time.Millisecond)))
	require.True(t, svc.Limiter().TryAcquire())
	defer svc.Limiter().Release()

	_, err := svc.ParseArchive(context.Background(), "x.zip", nil)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestIngestReport(t *testing.T) {
	fake := newFakeNemweb(t)
	var delivered []string
	svc := newTestService(t, fake, OnCollection(func(_ context.Context, rp nemweb.ReportPath, col *mms.Collection) error {
		delivered = append(delivered, rp.UniqueKey)
		return nil
	}))
	href := tradingDir + fake.order[0]

	col, err := svc.IngestReport(context.Background(), href)
	require.NoError(t, err)
	assert.Len(t, col.Records, 3)

	seen, err := svc.Ledger().Seen(context.Background(), "0000000413460134")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, []string{"0000000413460134"}, delivered)

	_, err = svc.IngestReport(context.Background(), href)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, int32(1), fake.downloads.Load(), "a processed archive is not downloaded again")
}

func TestIngestReport_Errors(t *testing.T) {
	svc := newTestService(t, newFakeNemweb(t))

	_, err := svc.IngestReport(context.Background(), "/r/CURRENTDAY.zip")
	assert.ErrorIs(t, err, nemweb.ErrBadReportPath)

	_, err = svc.IngestReport(context.Background(), tradingDir+"PUBLIC_TRADINGIS_202403031355_0000000413460999.zip")
	var se *nemweb.StatusError
	assert.ErrorAs(t, err, &se)
}

func TestIngestDirectory(t *testing.T) {
	fake := newFakeNemweb(t)
	svc := newTestService(t, fake)
	ctx := context.Background()

	// One archive was handled by an earlier run.
	require.NoError(t, svc.Ledger().Mark(ctx, ledger.Entry{Key: "0000000413460407"}))

	sum, err := svc.IngestDirectory(ctx, tradingDir)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Listed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.Ingested)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, 6, sum.Records)
	assert.Equal(t, []time.Time{time.Date(2024, 3, 3, 13, 45, 0, 0, time.UTC)}, sum.Gaps)

	again, err := svc.IngestDirectory(ctx, tradingDir)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Skipped)
	assert.Equal(t, int32(2), fake.downloads.Load())

	recent, err := svc.Ledger().Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}

func TestIngestDirectory_Cancelled(t *testing.T) {
	svc := newTestService(t, newFakeNemweb(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.IngestDirectory(ctx, tradingDir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartPoller(t *testing.T) {
	fake := newFakeNemweb(t)
	svc := newTestService(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartPoller(ctx, []string{tradingDir}, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		recent, _ := svc.Ledger().Recent(context.Background(), 10)
		return len(recent) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.Equal(t, int32(3), fake.downloads.Load())
}

func TestCadence(t *testing.T) {
	assert.Equal(t, nemweb.FiveMinutes, Cadence(tradingDir))
	assert.Equal(t, nemweb.ThirtyMinutes, Cadence("/Reports/Current/ROOFTOP_PV/ACTUAL/"))
}
