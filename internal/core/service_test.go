package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regexcol/internal/transform"
)

func runPipeline(csv, column, pattern, replacement string) (string, error) {
	res, err := transform.TransformFile([]byte(csv), "csv", transform.Params{
		Column:      column,
		Pattern:     pattern,
		Replacement: replacement,
	})
	if err != nil {
		return "", err
	}
	return string(res.CSV), nil
}

func newTestService(t *testing.T, reg prometheus.Registerer) (*Service, *MemoryHistory) {
	t.Helper()
	history := NewMemoryHistory(10)
	svc := NewService(Options{
		MaxConcurrent: 2,
		MaxWait:       100 * time.Millisecond,
		PreviewRows:   2,
		History:       history,
		Metrics:       NewMetrics(reg),
	})
	return svc, history
}

func TestService_Transform(t *testing.T) {
	svc, history := newTestService(t, nil)
	ctx := ContextWithClient(context.Background(), "10.0.0.7", "curl/8.0")

	resp, err := svc.Transform(ctx, TransformRequest{
		FileName:    "people.csv",
		Data:        []byte("id,name\n1,John_Smith\n2,Jane_Doe\n"),
		Column:      " Name ",
		Pattern:     "_",
		Replacement: " ",
	})
	require.NoError(t, err)

	assert.Equal(t, "id,name\n1,John Smith\n2,Jane Doe\n", string(resp.CSV))
	assert.Equal(t, "name", resp.Column)
	assert.Equal(t, 2, resp.Rows)
	assert.Equal(t, 2, resp.Changed)
	assert.False(t, resp.NoMatches)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())

	entries, err := history.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, resp.ID, e.ID)
	assert.Equal(t, "people.csv", e.FileName)
	assert.Equal(t, 2, e.Changed)
	assert.Empty(t, e.ErrorCode)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.Equal(t, "curl/8.0", e.UserAgent)
}

func TestService_TransformWithPreset(t *testing.T) {
	svc, history := newTestService(t, nil)

	resp, err := svc.Transform(context.Background(), TransformRequest{
		FileName:    "contacts.csv",
		Data:        []byte("who,email\nann,ann@example.org\n"),
		Column:      "email",
		Description: "email address",
		Replacement: "hidden",
	})
	require.NoError(t, err)
	assert.Equal(t, "who,email\nann,hidden\n", string(resp.CSV))
	assert.Equal(t, "email", resp.Preset)

	entries, _ := history.Recent(context.Background(), 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "email", entries[0].Preset)
	assert.Equal(t, presets[0].Pattern, entries[0].Pattern)
}

func TestService_TransformNoMatches(t *testing.T) {
	svc, _ := newTestService(t, nil)

	resp, err := svc.Transform(context.Background(), TransformRequest{
		FileName: "people.csv",
		Data:     []byte("id,name\n1,John\n"),
		Column:   "name",
		Pattern:  "zzz",
	})
	require.NoError(t, err)
	assert.True(t, resp.NoMatches)
	assert.Equal(t, "id,name\n1,John\n", string(resp.CSV))
}

func TestService_TransformErrorsAreRecorded(t *testing.T) {
	svc, history := newTestService(t, nil)

	_, err := svc.Transform(context.Background(), TransformRequest{
		FileName: "people.csv",
		Data:     []byte("id,name\n1,John\n"),
		Column:   "email",
		Pattern:  "x",
	})
	require.ErrorIs(t, err, transform.ErrColumnNotFound)
	assert.Equal(t, []string{"id", "name"}, AvailableColumns(err))

	_, err = svc.Transform(context.Background(), TransformRequest{FileName: "people.csv"})
	require.Error(t, err)
	assert.Equal(t, "REQ001", MapError(err).Code)

	entries, err := history.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "REQ001", entries[0].ErrorCode)
	assert.Equal(t, "COL001", entries[1].ErrorCode)
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestService_TransformBusy(t *testing.T) {
	svc, _ := newTestService(t, nil)
	l := svc.Limiter()
	require.True(t, l.TryAcquire())
	require.True(t, l.TryAcquire())
	defer l.Release()
	defer l.Release()

	_, err := svc.Transform(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrTooManyTransforms)
	assert.Equal(t, "UPL002", MapError(err).Code)
}

type failingHistory struct{ MemoryHistory }

func (f *failingHistory) Record(context.Context, HistoryEntry) error {
	return errors.New("connection refused")
}

func TestService_HistoryFailureDoesNotFailTransform(t *testing.T) {
	svc := NewService(Options{History: &failingHistory{}})

	resp, err := svc.Transform(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Changed)
}

func TestService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, _ := newTestService(t, reg)
	svc.metrics.RegisterLimiter(reg, svc.Limiter())

	_, err := svc.Transform(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Transform(context.Background(), TransformRequest{
		FileName: "people.csv",
		Data:     []byte("id\n1\n"),
		Column:   "id",
		Pattern:  "(",
	})
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "regexcol_transforms_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" {
					counts[lp.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"ok": 1, "InvalidPattern": 1}, counts)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["regexcol_transforms_active"])
	assert.True(t, names["regexcol_cells_changed_total"])
}

func TestService_ConcurrentTransforms(t *testing.T) {
	svc := NewService(Options{MaxConcurrent: 2, MaxWait: 5 * time.Second})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Transform(context.Background(), validRequest())
			if err == nil && string(resp.CSV) != "id,name\n1,JohnSmith\n" {
				err = errors.New("unexpected output: " + string(resp.CSV))
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, svc.Limiter().ActiveCount())
}

func TestService_Preview(t *testing.T) {
	svc, _ := newTestService(t, nil)
	data := []byte("id,name\n1,a\n2,b\n3,c\n")

	got, err := svc.Preview(context.Background(), "x.csv", data, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, got.Columns)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, got.Rows)
	assert.Equal(t, 3, got.RowCount)

	got, err = svc.Preview(context.Background(), "x.csv", data, 50)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2, "capped at MaxPreviewRows")

	_, err = svc.Preview(context.Background(), "x.pdf", data, 1)
	require.ErrorIs(t, err, transform.ErrUnsupportedFileType)

	_, err = svc.Preview(context.Background(), "x.csv", nil, 1)
	require.Error(t, err)
	assert.Equal(t, "FILE005", MapError(err).Code)
}
