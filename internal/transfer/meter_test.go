package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeter_Sample(t *testing.T) {
	var m Meter
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Rates{}, m.Sample(start, Stats{Downloaded: 100, Uploaded: 10}))

	rates := m.Sample(start.Add(2*time.Second), Stats{Downloaded: 2100, Uploaded: 410})
	assert.Equal(t, Rates{Download: 1000, Upload: 200}, rates)

	// No time elapsed keeps the last rates.
	assert.Equal(t, rates, m.Sample(start.Add(2*time.Second), Stats{Downloaded: 5000}))
}

func TestETA(t *testing.T) {
	_, known := ETA(Stats{Length: 100}, Rates{})
	assert.False(t, known)

	eta, known := ETA(Stats{Length: 10_000, Completed: 4_000}, Rates{Download: 1_000})
	assert.True(t, known)
	assert.Equal(t, 6*time.Second, eta)
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name     string
		stats    Stats
		rates    Rates
		expected string
	}{
		{
			name:     "no rate yet",
			stats:    Stats{Peers: 0, Length: 1000},
			expected: "<b>Peers:</b> 0 <b>Progress:</b> 0.0% <b>Download speed:</b> 0.0 B/s <b>Upload speed:</b> 0.0 B/s <b>ETA:</b> Infinity years remaining.",
		},
		{
			name:     "downloading",
			stats:    Stats{Peers: 3, Length: 2_000_000, Completed: 500_000},
			rates:    Rates{Download: 50_000, Upload: 1_500},
			expected: "<b>Peers:</b> 3 <b>Progress:</b> 25.0% <b>Download speed:</b> 50.0 KB/s <b>Upload speed:</b> 1.5 KB/s <b>ETA:</b> Half a minute remaining.",
		},
		{
			name:     "done",
			stats:    Stats{Peers: 1, Length: 10, Completed: 10},
			expected: "<b>Peers:</b> 1 <b>Progress:</b> 100.0% <b>Download speed:</b> 0.0 B/s <b>Upload speed:</b> 0.0 B/s <b>ETA:</b> Done.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(StatusLine(tt.stats, tt.rates)))
		})
	}
}
