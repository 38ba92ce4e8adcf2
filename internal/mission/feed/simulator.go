package feed

import (
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// DefaultInterval is the push period of the simulator.
const DefaultInterval = 500 * time.Millisecond

type channel struct {
	field    model.Field
	down, up float64
	min, max float64
}

var simChannels = []channel{
	{field: model.FieldOxygen, down: 1.2, up: 0.6, min: 10, max: 100},
	{field: model.FieldPressure, down: 0.8, up: 0.8, min: 40, max: 110},
	{field: model.FieldPower, down: 0.5, up: 0.3, min: 5, max: 100},
}

// Simulator produces a drifting oxygen/pressure/power stream, trending down
// so that a long running feed eventually raises a sensor emergency.
type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	values map[model.Field]float64
}

// NewSimulator starts at 95% oxygen, 101 kPa and 85% power. A nil rng is seeded from the clock.
func NewSimulator(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		rng: rng,
		values: map[model.Field]float64{
			model.FieldOxygen:   95,
			model.FieldPressure: 101,
			model.FieldPower:    85,
		},
	}
}

// Next advances every channel once and returns the update to push.
func (s *Simulator) Next() model.SensorUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[model.Field]float64, len(simChannels))
	for _, c := range simChannels {
		delta := -c.down + s.rng.Float64()*(c.down+c.up)
		v := math.Max(c.min, math.Min(c.max, s.values[c.field]+delta))
		s.values[c.field] = v
		out[c.field] = math.Round(v*10) / 10
	}
	oxygen, pressure, power := out[model.FieldOxygen], out[model.FieldPressure], out[model.FieldPower]
	return model.SensorUpdate{Oxygen: &oxygen, Pressure: &pressure, Power: &power}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades the request and pushes sim.Next() every interval until the
// client goes away.
func Handler(sim *Simulator, interval time.Duration) http.Handler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn().Err(err).Msg("sensor feed upgrade failed")
			return
		}
		defer conn.Close()
		logx.Info().Str("remote", r.RemoteAddr).Msg("sensor feed client connected")

		// reader detects the peer closing the socket
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-closed:
				logx.Info().Str("remote", r.RemoteAddr).Msg("sensor feed client disconnected")
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(sim.Next()); err != nil {
					logx.Debug().Err(err).Msg("sensor feed write failed")
					return
				}
			}
		}
	})
}
