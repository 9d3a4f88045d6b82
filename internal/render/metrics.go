package render

import (
	"time"
)

// Metrics is the captured input a snapshot stores and the renderer reads.
type Metrics struct {
	Seed        string `json:"seed"`
	GeneratedAt string `json:"generated_at"`
	SleepScore  *int   `json:"sleep_score,omitempty"`
	RestingHR   *int   `json:"resting_hr,omitempty"`
	Steps       *int   `json:"steps,omitempty"`
	Note        string `json:"note,omitempty"`
}

// HourKey formats the UTC hour bucket used to key hourly samples.
func HourKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15")
}

// SampleMetrics builds mock metrics that are stable within one UTC hour.
func SampleMetrics(now time.Time) Metrics {
	return mockMetrics("sample:"+HourKey(now), now, "mock sample")
}

// PreviewMetrics builds mock metrics for an ad hoc preview.
func PreviewMetrics(seed string, now time.Time) Metrics {
	return mockMetrics(seed, now, "mock preview")
}

func mockMetrics(seed string, now time.Time, note string) Metrics {
	r := xorshift(seed)
	sleep := 60 + int(r()*40)
	hr := 45 + int(r()*35)
	steps := int(r() * 12000)
	return Metrics{
		Seed:        seed,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		SleepScore:  &sleep,
		RestingHR:   &hr,
		Steps:       &steps,
		Note:        note,
	}
}

// xorshift returns a generator in [0,1) seeded by an FNV-1a hash of seed.
func xorshift(seed string) func() float64 {
	h := uint32(2166136261)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= 16777619
	}
	return func() float64 {
		h ^= h << 13
		h ^= h >> 17
		h ^= h << 5
		return float64(h%100000) / 100000
	}
}
