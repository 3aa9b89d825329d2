package transfer

import (
	"fmt"
	"html/template"
	"math"
	"sync"
	"time"

	"github.com/instant-io/instant/internal/ui"
)

// Rates are payload transfer speeds in bytes per second.
type Rates struct {
	Download float64
	Upload   float64
}

// Meter derives rates from successive Stats samples.
type Meter struct {
	mu     sync.Mutex
	last   Stats
	lastAt time.Time
	rates  Rates
}

// Sample records s taken at now and returns the rates since the previous
// sample. The first sample yields zero rates.
func (m *Meter) Sample(now time.Time, s Stats) Rates {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lastAt.IsZero() {
		if elapsed := now.Sub(m.lastAt).Seconds(); elapsed > 0 {
			m.rates = Rates{
				Download: math.Max(0, float64(s.Downloaded-m.last.Downloaded)/elapsed),
				Upload:   math.Max(0, float64(s.Uploaded-m.last.Uploaded)/elapsed),
			}
		}
	}

	m.last, m.lastAt = s, now
	return m.rates
}

// ETA estimates the time left at the current download rate. known is false
// while nothing is being downloaded.
func ETA(s Stats, r Rates) (eta time.Duration, known bool) {
	if r.Download <= 0 {
		return 0, false
	}
	left := float64(max(s.Length-s.Completed, 0))
	return time.Duration(left / r.Download * float64(time.Second)), true
}

// StatusLine renders the one-line status of a transfer.
func StatusLine(s Stats, r Rates) template.HTML {
	eta, known := ETA(s, r)
	return template.HTML(fmt.Sprintf(
		"<b>Peers:</b> %d <b>Progress:</b> %.1f%% <b>Download speed:</b> %s/s <b>Upload speed:</b> %s/s <b>ETA:</b> %s",
		s.Peers,
		100*s.Progress(),
		ui.MetricBytes(r.Download),
		ui.MetricBytes(r.Upload),
		ui.Remaining(s.Done(), eta, known),
	))
}
