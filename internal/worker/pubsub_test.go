package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumewatch/plumewatch/internal/plant"
	"github.com/plumewatch/plumewatch/internal/worker"
)

func TestRefreshJob_Dispatch(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		errs    map[int64]error
		wantErr error
		failed  bool
	}{
		{name: "refresh", data: `{"job_type":"reading_refresh"}`},
		{name: "refresh hour", data: `{"job_type":"reading_refresh","time":"2024-05-01T03:00:00Z","plant_ids":[1]}`},
		{name: "health check", data: `{"job_type":"health_check"}`},
		{name: "unknown", data: `{"job_type":"alert_evaluation"}`, wantErr: worker.ErrUnknownJob},
		{name: "malformed", data: `{"job_type":`, wantErr: worker.ErrMalformedMessage},
		{
			name:   "mostly failing",
			data:   `{"job_type":"reading_refresh"}`,
			errs:   map[int64]error{1: plant.ErrSourceUnavailable, 2: plant.ErrSourceUnavailable},
			failed: true,
		},
		{
			name: "half failing",
			data: `{"job_type":"reading_refresh"}`,
			errs: map[int64]error{1: plant.ErrSourceUnavailable},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newJob(plants(3), &fakeReadings{errs: tt.errs}, worker.RefreshConfig{}, nil)

			err := job.Dispatch(context.Background(), []byte(tt.data))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.failed:
				assert.ErrorContains(t, err, "too many refresh failures")
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRefreshJob_DispatchHour(t *testing.T) {
	readings := &fakeReadings{}
	job := newJob(plants(3), readings, worker.RefreshConfig{}, nil)

	err := job.Dispatch(context.Background(), []byte(`{"job_type":"reading_refresh","time":"2024-05-01T03:40:00Z","plant_ids":[1,3]}`))
	require.NoError(t, err)

	want := time.Date(2024, 5, 1, 3, 40, 0, 0, time.UTC)
	require.Len(t, readings.hours, 2)
	for _, h := range readings.hours {
		assert.True(t, want.Equal(h))
	}
}
