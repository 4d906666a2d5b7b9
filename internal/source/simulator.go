package source

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"budget-auditor/internal/models"
)

// Reference data for generated events.
var (
	simStates = []string{
		"Tamil Nadu", "Maharashtra", "Karnataka", "Uttar Pradesh",
		"Gujarat", "Rajasthan", "West Bengal", "Andhra Pradesh",
		"Telangana", "Kerala",
	}

	simSectors = []string{
		"Electricity", "Water", "Transport", "Healthcare",
		"Education", "Agriculture", "Renewable Energy", "Sanitation",
	}

	simContractors = []string{
		"GreenInfra Ltd", "BharatBuild Corp", "EcoPower Solutions",
		"National Constructions", "SunTech Projects",
		"AquaWorks India", "RoadMaster Pvt Ltd", "SmartGrid Co",
		"HydroForce Inc", "TerraBuild Associates",
	}

	simCategories = []string{
		"capital", "maintenance", "subsidy", "emergency",
	}

	// Base allocation ranges per sector, INR crores.
	simAllocations = map[string][2]float64{
		"Electricity":      {200, 800},
		"Water":            {100, 500},
		"Transport":        {300, 1200},
		"Healthcare":       {150, 600},
		"Education":        {100, 400},
		"Agriculture":      {200, 700},
		"Renewable Energy": {400, 1500},
		"Sanitation":       {80, 350},
	}
)

// SimulatorConfig holds generator configuration.
type SimulatorConfig struct {
	// Interval is the gap between generated events.
	Interval time.Duration
	// AnomalyProbability is the chance an event is an intentional spike,
	// 5 to 15 times the sector's normal upper bound.
	AnomalyProbability float64
	// Seed seeds the generator; zero means time-based.
	Seed int64
}

// DefaultSimulatorConfig returns the default generator configuration.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Interval:           1500 * time.Millisecond,
		AnomalyProbability: 0.08,
	}
}

// Simulator generates a continuous stream of realistic budget events,
// occasionally seeding deliberate anomalies so the detection paths stay
// exercised in demos and soak tests.
type Simulator struct {
	config SimulatorConfig
	rng    *rand.Rand
	now    func() time.Time
}

// NewSimulator creates a simulator.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		config: cfg,
		rng:    rand.New(rand.NewSource(seed)),
		now:    time.Now,
	}
}

// Name returns the source name.
func (s *Simulator) Name() string { return "simulator" }

// Generate produces one event.
func (s *Simulator) Generate() models.BudgetEvent {
	sector := simSectors[s.rng.Intn(len(simSectors))]
	bounds, ok := simAllocations[sector]
	if !ok {
		bounds = [2]float64{100, 500}
	}
	lo, hi := bounds[0], bounds[1]

	var amount float64
	if s.rng.Float64() < s.config.AnomalyProbability {
		// Deliberate spike, 5 to 15 times the normal upper bound.
		amount = hi*5 + s.rng.Float64()*hi*10
	} else {
		amount = lo + s.rng.Float64()*(hi-lo)
	}

	return models.BudgetEvent{
		EventID:    uuid.NewString(),
		Timestamp:  s.now().UTC().Truncate(time.Second),
		State:      simStates[s.rng.Intn(len(simStates))],
		Sector:     sector,
		Contractor: simContractors[s.rng.Intn(len(simContractors))],
		Amount:     float64(int(amount*100)) / 100,
		Category:   simCategories[s.rng.Intn(len(simCategories))],
	}
}

// Run emits one JSONL-encoded event per interval until ctx is cancelled or
// emit returns an error.
func (s *Simulator) Run(ctx context.Context, emit EmitFunc) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ev := s.Generate()
			line, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if err := emit(line); err != nil {
				return err
			}
		}
	}
}
