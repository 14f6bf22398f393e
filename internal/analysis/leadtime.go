package analysis

import (
	"context"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

const maxTrackedLeadTime = 30 * 24 * time.Hour

// LeadTimeStats are payment-to-shipment percentiles in minutes
type LeadTimeStats struct {
	Orders int64
	P50    float64
	P90    float64
	P99    float64
	Max    float64
}

// LeadTimeDistribution records the lead time of every fact row with both timestamps and a
// non-negative duration, at one-second resolution. Durations beyond the tracked range count
// at the range limit.
func LeadTimeDistribution(ctx context.Context, wh Warehouse) (LeadTimeStats, error) {
	facts, err := wh.ReadFactOrders(ctx)
	if err != nil {
		return LeadTimeStats{}, err
	}

	// Values are stored shifted by one second so a zero lead time stays recordable.
	hist := hdrhistogram.New(1, int64(maxTrackedLeadTime/time.Second)+1, 4)
	for _, f := range facts {
		d, ok := f.LeadTime()
		if !ok {
			continue
		}
		if err := hist.RecordValue(int64(d/time.Second) + 1); err != nil {
			if err := hist.RecordValue(hist.HighestTrackableValue()); err != nil {
				return LeadTimeStats{}, errors.Wrap(err, errors.ErrCodeInternal, "Failed to record lead time")
			}
		}
	}

	if hist.TotalCount() == 0 {
		return LeadTimeStats{}, nil
	}
	return LeadTimeStats{
		Orders: hist.TotalCount(),
		P50:    recordedMinutes(hist, hist.ValueAtQuantile(50)),
		P90:    recordedMinutes(hist, hist.ValueAtQuantile(90)),
		P99:    recordedMinutes(hist, hist.ValueAtQuantile(99)),
		Max:    recordedMinutes(hist, hist.Max()),
	}, nil
}

// recordedMinutes undoes the one-second shift on the lowest value of v's bucket
func recordedMinutes(hist *hdrhistogram.Histogram, v int64) float64 {
	return float64(hist.LowestEquivalentValue(v)-1) / 60
}
