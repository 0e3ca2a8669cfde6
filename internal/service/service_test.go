package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"sessionchart/internal/alerting"
	"sessionchart/internal/fetcher"
	"sessionchart/internal/live"
	"sessionchart/internal/render"
)

type stubRecords map[string][]float64

func (s stubRecords) FetchRecords(_ context.Context, fileID string) ([]fetcher.RawRecord, error) {
	values, ok := s[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown file %s", fetcher.ErrUpstream, fileID)
	}
	records := make([]fetcher.RawRecord, len(values))
	for i, v := range values {
		records[i] = fetcher.RawRecord{
			Time:   fmt.Sprintf("09:00:%02d", i),
			Fields: map[string]decimal.Decimal{"prf": decimal.NewFromFloat(v)},
		}
	}
	return records, nil
}

func files(ids ...string) []fetcher.FileEntry {
	out := make([]fetcher.FileEntry, len(ids))
	for i, id := range ids {
		out[i] = fetcher.FileEntry{ID: id}
	}
	return out
}

func TestAverageDropsFailedFiles(t *testing.T) {
	svc := NewAverage(stubRecords{
		"a": {1, 2, 3},
		"b": {3, 2, 1},
	}, 2, zerolog.Nop())

	report, err := svc.Compute(context.Background(), files("a", "missing", "b"), "prf")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(report.Inputs) != 2 || len(report.Failed) != 1 || report.Failed[0].ID != "missing" {
		t.Fatalf("inputs=%d failed=%+v", len(report.Inputs), report.Failed)
	}
	for i, v := range report.Result.Average {
		if v != 2 {
			t.Fatalf("average[%d] = %v, want 2", i, v)
		}
	}

	lines := make([]render.Line, len(report.Inputs))
	for i, in := range report.Inputs {
		lines[i] = render.Line{Name: in.File.Label(), Values: in.Values}
	}
	if got := len(render.AverageSeries(lines, report.Result)); got != len(report.Inputs)+2 {
		t.Fatalf("datasets = %d, want %d", got, len(report.Inputs)+2)
	}
}

func TestAverageDropsEmptySeries(t *testing.T) {
	svc := NewAverage(stubRecords{"a": {1, 5}, "empty": {}}, 0, zerolog.Nop())

	report, err := svc.Compute(context.Background(), files("empty", "a"), "prf")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(report.Inputs) != 1 || report.Result.Extreme.Index != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestAverageNoSurvivors(t *testing.T) {
	svc := NewAverage(stubRecords{"a": {1, 2}}, 0, zerolog.Nop())

	_, err := svc.Compute(context.Background(), files("x", "y"), "prf")
	if !errors.Is(err, ErrNoSeries) {
		t.Fatalf("err = %v, want ErrNoSeries", err)
	}

	_, err = svc.Compute(context.Background(), files("a"), "np1")
	if !errors.Is(err, ErrNoSeries) {
		t.Fatalf("missing field err = %v, want ErrNoSeries", err)
	}
}

type partialRecords []fetcher.RawRecord

func (p partialRecords) FetchRecords(context.Context, string) ([]fetcher.RawRecord, error) {
	return p, nil
}

func TestExtractFieldCountsMissing(t *testing.T) {
	records := []fetcher.RawRecord{
		{Fields: map[string]decimal.Decimal{"prf": decimal.NewFromInt(1)}},
		{Fields: map[string]decimal.Decimal{"np1": decimal.NewFromInt(2)}},
		{Fields: map[string]decimal.Decimal{"prf": decimal.NewFromInt(3)}},
	}
	values, skipped := ExtractField(records, "prf")
	if skipped != 1 || len(values) != 2 || values[0] != 1 || values[1] != 3 {
		t.Fatalf("values=%v skipped=%d", values, skipped)
	}
}

func TestAverageWarnsOnMissingField(t *testing.T) {
	var logs bytes.Buffer
	src := partialRecords{
		{Fields: map[string]decimal.Decimal{"prf": decimal.NewFromInt(1)}},
		{Fields: map[string]decimal.Decimal{}},
		{Fields: map[string]decimal.Decimal{"prf": decimal.NewFromInt(4)}},
	}
	svc := NewAverage(src, 0, zerolog.New(&logs))

	report, err := svc.Compute(context.Background(), files("a"), "prf")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(report.Inputs) != 1 || len(report.Inputs[0].Values) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	out := logs.String()
	for _, want := range []string{`"level":"warn"`, `"file_id":"a"`, `"skipped":1`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %s:\n%s", want, out)
		}
	}
}

func TestSessionLoad(t *testing.T) {
	svc := NewSession(stubRecords{"a": {1}, "empty": {}}, zerolog.Nop())

	if records, err := svc.Load(context.Background(), "a"); err != nil || len(records) != 1 {
		t.Fatalf("load: %v, %d records", err, len(records))
	}
	if _, err := svc.Load(context.Background(), "empty"); !errors.Is(err, ErrNoRecords) {
		t.Fatalf("err = %v, want ErrNoRecords", err)
	}
	if _, err := svc.Load(context.Background(), "nope"); !errors.Is(err, fetcher.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

type stubLive struct {
	mu        sync.Mutex
	snapshots []string
	err       error
}

func (s *stubLive) push(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, payload)
}

func (s *stubLive) FetchLive(context.Context) ([]live.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var records []live.Record
	if err := json.Unmarshal([]byte(s.snapshots[len(s.snapshots)-1]), &records); err != nil {
		return nil, err
	}
	return records, nil
}

type recordingPublisher struct {
	published []*chart.Chart
}

func (p *recordingPublisher) Publish(graph *chart.Chart) error {
	p.published = append(p.published, graph)
	return nil
}

type recordingNotifier struct {
	notes []alerting.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note alerting.Notification) error {
	n.notes = append(n.notes, note)
	return nil
}

const (
	snapshotOne = `[
		{"time":"090000","now_prc":100,"np1":1,"np2":0,"prf":10,"type1":"B","type2":"K"},
		{"time":"090030","now_prc":101,"np1":2,"np2":0,"prf":-20,"type1":"","type2":""}
	]`
	snapshotTwo = `[
		{"time":"090000","now_prc":100,"np1":1,"np2":0,"prf":10,"type1":"B","type2":"K"},
		{"time":"090030","now_prc":101,"np1":2,"np2":0,"prf":-20,"type1":"","type2":""},
		{"time":"090100","now_prc":99,"np1":2,"np2":-3,"prf":5,"type1":"","type2":""}
	]`
)

func newTestLive(src *stubLive) (*Live, *recordingPublisher, *recordingNotifier) {
	pub := &recordingPublisher{}
	notes := &recordingNotifier{}
	svc := NewLive(src, pub, notes, LiveOptions{Location: time.UTC, Size: render.Size{Width: 320, Height: 240}}, zerolog.Nop())
	return svc, pub, notes
}

var pollAt = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func TestLivePollReplacesFrame(t *testing.T) {
	src := &stubLive{}
	src.push(snapshotOne)
	svc, pub, notes := newTestLive(src)

	if err := svc.Poll(context.Background(), pollAt); err != nil {
		t.Fatalf("poll: %v", err)
	}
	first := svc.Current()
	if first.View.Len() != 2 || first.Chart == nil || first.PollID == "" {
		t.Fatalf("unexpected frame %+v", first)
	}
	if len(pub.published) != 1 || pub.published[0] != first.Chart {
		t.Fatalf("published %d charts", len(pub.published))
	}
	if len(notes.notes) != 0 {
		t.Fatalf("first frame must only set the baseline, got %d notes", len(notes.notes))
	}

	src.push(snapshotTwo)
	if err := svc.Poll(context.Background(), pollAt.Add(time.Minute)); err != nil {
		t.Fatalf("poll: %v", err)
	}
	second := svc.Current()
	if second.View.Len() != 3 || second.PollID == first.PollID || second.Chart == first.Chart {
		t.Fatalf("frame not replaced")
	}
	if len(notes.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes.notes))
	}
	note := notes.notes[0]
	if note.Channel != "np2" || note.Label != "K" || !note.Value.Equal(decimal.NewFromInt(-3)) || !note.Price.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("unexpected note %+v", note)
	}
}

func TestLivePollNotifiesChangeInSameSecond(t *testing.T) {
	src := &stubLive{}
	src.push(snapshotOne)
	svc, _, notes := newTestLive(src)

	if err := svc.Poll(context.Background(), pollAt); err != nil {
		t.Fatalf("poll: %v", err)
	}

	src.push(`[
		{"time":"090000","now_prc":100,"np1":1,"np2":0,"prf":10,"type1":"B","type2":"K"},
		{"time":"090030","now_prc":101,"np1":2,"np2":0,"prf":-20,"type1":"","type2":""},
		{"time":"090030","now_prc":102,"np1":2,"np2":-3,"prf":-15,"type1":"","type2":""}
	]`)
	for i := 0; i < 2; i++ {
		if err := svc.Poll(context.Background(), pollAt.Add(time.Duration(i+1)*time.Minute)); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}

	if len(notes.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes.notes))
	}
	if note := notes.notes[0]; note.Channel != "np2" || !note.Value.Equal(decimal.NewFromInt(-3)) {
		t.Fatalf("unexpected note %+v", note)
	}
}

func TestLivePollKeepsFrameOnTransportFailure(t *testing.T) {
	src := &stubLive{}
	src.push(snapshotOne)
	svc, pub, _ := newTestLive(src)

	if err := svc.Poll(context.Background(), pollAt); err != nil {
		t.Fatalf("poll: %v", err)
	}
	before := svc.Current()

	src.err = fmt.Errorf("%w: connection refused", fetcher.ErrTransport)
	err := svc.Poll(context.Background(), pollAt.Add(time.Minute))
	if !errors.Is(err, fetcher.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if after := svc.Current(); after.PollID != before.PollID || after.Chart != before.Chart {
		t.Fatalf("frame changed after failed poll")
	}
	if len(pub.published) != 1 {
		t.Fatalf("failed poll must not publish")
	}
}

func TestLivePollKeepsFrameOnInvalidRecord(t *testing.T) {
	src := &stubLive{}
	src.push(snapshotOne)
	svc, _, _ := newTestLive(src)

	if err := svc.Poll(context.Background(), pollAt); err != nil {
		t.Fatalf("poll: %v", err)
	}
	before := svc.Current()

	src.push(`[{"time":"090000","np1":1,"np2":0,"prf":1}]`)
	err := svc.Poll(context.Background(), pollAt)
	if !errors.Is(err, live.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
	if svc.Current().PollID != before.PollID {
		t.Fatalf("frame changed after rejected snapshot")
	}
}

func TestLivePollEmptySnapshot(t *testing.T) {
	src := &stubLive{}
	src.push(`[]`)
	svc, pub, _ := newTestLive(src)

	if err := svc.Poll(context.Background(), pollAt); err != nil {
		t.Fatalf("poll: %v", err)
	}
	frame := svc.Current()
	if !frame.View.Empty() || frame.Chart != nil {
		t.Fatalf("empty snapshot should give an empty frame")
	}
	if len(pub.published) != 1 || pub.published[0] != nil {
		t.Fatalf("expected a nil publish")
	}
}
