package sim

import (
	"context"
	"math"
	"sync"

	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/scene"
)

// Scenario is one headless run of an ensemble.
type Scenario struct {
	Name          string
	Demonstration config.Demonstration
	Solver        config.Solver
}

type Summary struct {
	Name          string  `json:"name"`
	Ticks         int     `json:"ticks"`
	CableError    float64 `json:"cable_error"`
	MaxCableError float64 `json:"max_cable_error"`
	MinY          float64 `json:"min_y"`
	MaxY          float64 `json:"max_y"`
	Markers       int     `json:"markers"`
}

// Services builds a fresh simulation and presentation for one run.
type Services func() (scene.Simulation, scene.Presentation)

// Ensemble runs scenarios concurrently, each on its own loop and services.
type Ensemble struct {
	scenarios []Scenario
	services  Services
	log       logging.Logger
}

func NewEnsemble(services Services, log logging.Logger, scenarios ...Scenario) *Ensemble {
	if log == nil {
		log = logging.Noop()
	}
	return &Ensemble{scenarios: scenarios, services: services, log: log}
}

// Run ticks every scenario n times with a fixed dt. Summaries are returned
// in scenario order.
func (e *Ensemble) Run(ctx context.Context, n int, dt float64) ([]Summary, error) {
	results := make([]Summary, len(e.scenarios))
	errs := make([]error, len(e.scenarios))

	var wg sync.WaitGroup
	for i, sc := range e.scenarios {
		wg.Add(1)
		go func(idx int, sc Scenario) {
			defer wg.Done()
			results[idx], errs[idx] = e.runOne(ctx, sc, n, dt)
		}(i, sc)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, sc Scenario, n int, dt float64) (Summary, error) {
	sim, pres := e.services()
	params := scene.NewParameterStore(sc.Demonstration, sc.Solver)
	loop := NewLoop(params, sim, pres, e.log.With(logging.String("scenario", sc.Name)))

	sum := Summary{Name: sc.Name, MinY: math.Inf(1), MaxY: math.Inf(-1)}
	loop.AddObserver(ObserverFunc(func(f Frame) {
		sum.Ticks++
		sum.MaxCableError = math.Max(sum.MaxCableError, f.CableError)
		for _, p := range f.Traceable {
			sum.MinY = math.Min(sum.MinY, p.Y())
			sum.MaxY = math.Max(sum.MaxY, p.Y())
		}
	}))

	last, err := loop.Run(ctx, n, dt)
	if err != nil {
		return sum, err
	}
	sum.CableError = last.CableError
	sum.Markers = last.Markers
	return sum, nil
}
