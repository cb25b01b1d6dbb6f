package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tamzrod/pinlogger/internal/pinlog"
	"github.com/tamzrod/pinlogger/internal/sample"
	"github.com/tamzrod/pinlogger/internal/source"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

// ---- fake source ----

type item struct {
	r     source.Reading
	err   error
	panic string
}

type fakeSource struct {
	mu        sync.Mutex
	items     []item
	served    int
	samples   int
	opens     int
	closes    int
	openErr   error
	blockOpen bool
	readDelay time.Duration
}

func (f *fakeSource) Open(ctx context.Context) error {
	f.mu.Lock()
	f.opens++
	openErr, block := f.openErr, f.blockOpen
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return openErr
}

func (f *fakeSource) Read() (source.Reading, error) {
	f.mu.Lock()
	delay := f.readDelay
	if len(f.items) == 0 {
		f.served++
		f.mu.Unlock()
		if delay <= 0 {
			delay = time.Millisecond
		}
		time.Sleep(delay)
		return source.Reading{At: time.Now(), Kind: source.KindTimeout}, nil
	}

	it := f.items[0]
	f.items = f.items[1:]
	f.served++
	if it.r.OK() {
		f.samples++
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if it.panic != "" {
		panic(it.panic)
	}
	return it.r, it.err
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSource) counts() (served, samples, opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.served, f.samples, f.opens, f.closes
}

// ---- fake log ----

type fakeLog struct {
	mu        sync.Mutex
	opens     int
	closes    int
	openErr   error
	closeErr  error
	writeErrs []error
	written   []sample.Sample
}

func (l *fakeLog) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
	return l.openErr
}

func (l *fakeLog) WriteSample(s sample.Sample) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.writeErrs) > 0 {
		err := l.writeErrs[0]
		l.writeErrs = l.writeErrs[1:]
		if err != nil {
			return err
		}
	}
	l.written = append(l.written, s)
	return nil
}

func (l *fakeLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes++
	return l.closeErr
}

// ---- helpers ----

func sampleItem(t *testing.T, line string) item {
	t.Helper()
	s, err := sample.Decode(line)
	require.NoError(t, err)
	return item{r: source.Reading{At: time.Now(), Kind: source.KindSample, Sample: s, Line: line}}
}

func malformedItem(line string) item {
	_, err := sample.Decode(line)
	return item{r: source.Reading{At: time.Now(), Kind: source.KindMalformed, Line: line, Err: err}}
}

func testConfig(t *testing.T) Config {
	return Config{
		Source:      source.Config{Device: "/dev/ttyFAKE0", BaudRate: 115200},
		Log:         pinlog.Config{Path: filepath.Join(t.TempDir(), "pins.ndjson"), FlushEvery: 1},
		StopTimeout: time.Second,
	}
}

func newService(t *testing.T, cfg Config, src *fakeSource, lg SampleLog) *Service {
	t.Helper()

	opts := []Option{
		WithSourceFactory(func() (SampleSource, error) { return src, nil }),
	}
	if lg != nil {
		opts = append(opts, WithLogFactory(func() (SampleLog, error) { return lg, nil }))
	}

	logger, _ := zap.NewDevelopment()
	svc, err := New(cfg, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Stop)
	return svc
}

func workerExited(svc *Service) bool {
	select {
	case <-svc.done:
		return true
	default:
		return false
	}
}

// ---- tests ----

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{PollSleep: -time.Second}, nil)
	assert.Error(t, err)

	_, err = New(Config{StopTimeout: -time.Second}, nil)
	assert.Error(t, err)

	svc, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStopTimeout, svc.cfg.StopTimeout)
}

func TestService_StopBeforeStart(t *testing.T) {
	svc := newService(t, testConfig(t), &fakeSource{}, &fakeLog{})

	svc.Stop()

	st := svc.Status()
	assert.False(t, st.Running)
	assert.False(t, svc.IsRunning())
	assert.Nil(t, st.UptimeSeconds)
	assert.Nil(t, st.LastSampleAgeSeconds)
	assert.Empty(t, st.RunID)
}

func TestService_SampleWrittenToLog(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{}
	src.items = []item{sampleItem(t, "4,1,5,0,6,1,7,0")}

	// real append log
	svc := newService(t, cfg, src, nil)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 1 }, waitFor, tick)

	st := svc.Status()
	assert.True(t, st.Running)
	assert.Equal(t, "/dev/ttyFAKE0", st.Port)
	assert.Equal(t, 115200, st.Baud)
	assert.Equal(t, cfg.Log.Path, st.LogPath)
	assert.NotEmpty(t, st.RunID)
	require.NotNil(t, st.UptimeSeconds)
	require.NotNil(t, st.LastSampleAgeSeconds)
	require.NotNil(t, st.Pins.D4)
	assert.Equal(t, 1, *st.Pins.D4)
	assert.Equal(t, 0, *st.Pins.D5)
	assert.Equal(t, 1, *st.Pins.D6)
	assert.Equal(t, 0, *st.Pins.D7)
	assert.Empty(t, st.LastError)

	svc.Stop()
	assert.False(t, svc.IsRunning())

	entries, err := pinlog.ReadFile(cfg.Log.Path, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, map[int]int{4: 1, 5: 0, 6: 1, 7: 0}, entries[0].Sample().States())

	_, _, opens, closes := src.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)
}

func TestService_MalformedLineCountsBadRead(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{malformedItem("4,1,5")}
	lg := &fakeLog{}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool {
		served, _, _, _ := src.counts()
		return served >= 3
	}, waitFor, tick)
	svc.Stop()

	served, samples, _, _ := src.counts()
	st := svc.Status()
	assert.Equal(t, 0, samples)
	assert.Equal(t, uint64(served), st.BadReads)
	assert.Zero(t, st.SamplesWritten)
	assert.Empty(t, st.LastError)
	assert.Nil(t, st.Pins.D4)
	assert.Nil(t, st.LastSampleAgeSeconds)
	assert.Empty(t, lg.written)
}

func TestService_EveryReadAccounted(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{
		sampleItem(t, "4,1"),
		malformedItem("x,1"),
		{r: source.Reading{Kind: source.KindEmpty}},
		sampleItem(t, "4,0,7,1"),
	}
	lg := &fakeLog{}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 2 }, waitFor, tick)
	svc.Stop()

	served, samples, _, _ := src.counts()
	st := svc.Status()
	assert.Equal(t, 2, samples)
	assert.Equal(t, uint64(served-samples), st.BadReads)

	// decode order is write order
	require.Len(t, lg.written, 2)
	v, _ := lg.written[0].D4()
	assert.Equal(t, 1, v)
	v, _ = lg.written[1].D7()
	assert.Equal(t, 1, v)

	// last sample replaces the whole pin cache
	assert.Nil(t, st.Pins.D5)
	require.NotNil(t, st.Pins.D7)
	assert.Equal(t, 1, *st.Pins.D7)
}

func TestService_WriteFailureContinues(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{sampleItem(t, "4,1"), sampleItem(t, "4,0")}
	lg := &fakeLog{writeErrs: []error{errors.New("disk full")}}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 1 }, waitFor, tick)

	st := svc.Status()
	assert.True(t, st.Running)
	assert.Equal(t, uint64(1), st.WriteErrors)
	assert.Equal(t, "log write error: disk full", st.LastError)
	require.NotNil(t, st.Pins.D4)
	assert.Equal(t, 0, *st.Pins.D4)
}

func TestService_QueuedFlushFailureIsNotLost(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{sampleItem(t, "4,1"), sampleItem(t, "4,0")}
	flushErr := &pinlog.WriteError{Op: "flush", Path: "pins.ndjson", Err: errors.New("disk full")}
	lg := &fakeLog{writeErrs: []error{flushErr}}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 2 }, waitFor, tick)

	st := svc.Status()
	assert.Zero(t, st.WriteErrors)
	assert.Equal(t, "log write error: pinlog: flush pins.ndjson: disk full", st.LastError)
}

func TestService_LostRecordsOnCloseCounted(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{sampleItem(t, "4,1")}
	lg := &fakeLog{closeErr: &pinlog.WriteError{Op: "flush", Path: "pins.ndjson", Lost: 3, Err: errors.New("disk full")}}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 1 }, waitFor, tick)
	svc.Stop()

	st := svc.Status()
	assert.Equal(t, uint64(3), st.WriteErrors)
	assert.Contains(t, st.LastError, "3 records lost")
}

func TestService_OpenFailureIsFatal(t *testing.T) {
	src := &fakeSource{openErr: errors.New("no such device")}
	lg := &fakeLog{}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return !svc.IsRunning() }, waitFor, tick)
	require.Eventually(t, func() bool { return workerExited(svc) }, waitFor, tick)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.True(t, strings.HasPrefix(st.LastError, "fatal: "), st.LastError)
	assert.Contains(t, st.LastError, "no such device")

	served, _, _, closes := src.counts()
	assert.Zero(t, served)
	assert.Equal(t, 1, closes)
	assert.Equal(t, 1, lg.closes)

	// releasing again is harmless
	assert.NoError(t, src.Close())
	svc.Stop()
}

func TestService_LogOpenFailureIsFatal(t *testing.T) {
	src := &fakeSource{}
	lg := &fakeLog{openErr: errors.New("permission denied")}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return workerExited(svc) }, waitFor, tick)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "fatal: permission denied", st.LastError)

	_, _, opens, _ := src.counts()
	assert.Zero(t, opens)
}

func TestService_TransportErrorIsFatal(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{{err: errors.New("device disconnected")}}

	svc := newService(t, testConfig(t), src, &fakeLog{})
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return workerExited(svc) }, waitFor, tick)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Contains(t, st.LastError, "device disconnected")

	_, _, _, closes := src.counts()
	assert.Equal(t, 1, closes)
}

func TestService_PanicRecovered(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{{panic: "boom"}}
	lg := &fakeLog{}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return workerExited(svc) }, waitFor, tick)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "fatal: panic: boom", st.LastError)
	assert.Equal(t, 1, lg.closes)
}

func TestService_ConcurrentStartSingleWorker(t *testing.T) {
	src := &fakeSource{}

	var mu sync.Mutex
	logs := 0
	opts := []Option{
		WithSourceFactory(func() (SampleSource, error) { return src, nil }),
		WithLogFactory(func() (SampleLog, error) {
			mu.Lock()
			logs++
			mu.Unlock()
			return &fakeLog{}, nil
		}),
	}
	svc, err := New(testConfig(t), nil, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Stop)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Start(context.Background())
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		_, _, opens, _ := src.counts()
		return opens == 1
	}, waitFor, tick)

	// give late starters a chance to misbehave
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, logs)
	mu.Unlock()
	_, _, opens, _ := src.counts()
	assert.Equal(t, 1, opens)
}

func TestService_StartIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	svc := newService(t, testConfig(t), src, &fakeLog{})

	svc.Start(context.Background())
	id := svc.Status().RunID
	svc.Start(context.Background())

	assert.Equal(t, id, svc.Status().RunID)
}

func TestService_SnapshotConsistency(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 300; i++ {
		src.items = append(src.items, sampleItem(t, "4,1,5,0,6,1,7,0"))
	}

	svc := newService(t, testConfig(t), src, &fakeLog{})
	svc.Start(context.Background())

	deadline := time.Now().Add(waitFor)
	for time.Now().Before(deadline) {
		st := svc.Status()
		if st.SamplesWritten > 0 {
			require.NotNil(t, st.Pins.D4, "samples=%d with no cached pins", st.SamplesWritten)
			require.NotNil(t, st.LastSampleAgeSeconds)
		}
		if st.SamplesWritten == 300 {
			return
		}
	}
	t.Fatalf("only %d samples written", svc.Status().SamplesWritten)
}

func TestService_StopTimeoutForcesNotRunning(t *testing.T) {
	cfg := testConfig(t)
	cfg.StopTimeout = 20 * time.Millisecond

	src := &fakeSource{readDelay: 300 * time.Millisecond}
	svc := newService(t, cfg, src, &fakeLog{})
	svc.Start(context.Background())
	firstRun := svc.Status().RunID

	require.Eventually(t, func() bool {
		served, _, _, _ := src.counts()
		return served == 1
	}, waitFor, tick)

	began := time.Now()
	svc.Stop()
	assert.Less(t, time.Since(began), 250*time.Millisecond)
	assert.False(t, svc.IsRunning())
	assert.False(t, workerExited(svc))

	// worker still alive: Start is a no-op
	svc.Start(context.Background())
	assert.Equal(t, firstRun, svc.Status().RunID)
	assert.False(t, svc.IsRunning())

	require.Eventually(t, func() bool { return workerExited(svc) }, waitFor, tick)

	svc.Start(context.Background())
	assert.NotEqual(t, firstRun, svc.Status().RunID)
	assert.True(t, svc.IsRunning())
}

func TestService_StopDuringStartupDelay(t *testing.T) {
	src := &fakeSource{blockOpen: true}
	lg := &fakeLog{}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())

	require.Eventually(t, func() bool {
		_, _, opens, _ := src.counts()
		return opens == 1
	}, waitFor, tick)

	svc.Stop()

	require.True(t, workerExited(svc))
	assert.Empty(t, svc.Status().LastError)
	assert.Equal(t, 1, lg.closes)
}

func TestService_RestartKeepsCountersClearsError(t *testing.T) {
	src := &fakeSource{}
	src.items = []item{sampleItem(t, "4,1"), sampleItem(t, "4,0")}
	lg := &fakeLog{writeErrs: []error{errors.New("disk full")}}

	svc := newService(t, testConfig(t), src, lg)
	svc.Start(context.Background())
	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 1 }, waitFor, tick)
	svc.Stop()

	first := svc.Status()
	require.NotEmpty(t, first.LastError)

	src.mu.Lock()
	src.items = []item{sampleItem(t, "5,1")}
	src.mu.Unlock()

	svc.Start(context.Background())
	require.Eventually(t, func() bool { return svc.Status().SamplesWritten == 2 }, waitFor, tick)

	st := svc.Status()
	assert.NotEqual(t, first.RunID, st.RunID)
	assert.Empty(t, st.LastError)
	assert.Equal(t, uint64(1), st.WriteErrors)
	assert.GreaterOrEqual(t, st.BadReads, first.BadReads)
}

func TestService_PollSleepObservesStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.PollSleep = time.Hour

	src := &fakeSource{}
	svc := newService(t, cfg, src, &fakeLog{})
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return svc.Status().BadReads == 1 }, waitFor, tick)

	began := time.Now()
	svc.Stop()
	assert.Less(t, time.Since(began), 500*time.Millisecond)
	assert.True(t, workerExited(svc))
}

func TestService_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{}

	svc := newService(t, testConfig(t), src, &fakeLog{})
	svc.Start(ctx)
	require.True(t, svc.IsRunning())

	cancel()

	require.Eventually(t, func() bool { return !svc.IsRunning() }, waitFor, tick)
	assert.Empty(t, svc.Status().LastError)
}
