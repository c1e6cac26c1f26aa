package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in a browser. It is injected by the caller so
// this package does not depend on the browser package.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine loads documents through a headless browser.
type RodEngine struct {
	render       RenderFunc
	forceStealth bool
}

// NewRodEngine creates a RodEngine. With forceStealth every request runs
// with the stealth evasions installed.
func NewRodEngine(render RenderFunc, forceStealth bool) *RodEngine {
	return &RodEngine{render: render, forceStealth: forceStealth}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("rod: render func not configured")
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("rod: %w", err)
	}
	result.EngineName = e.Name()
	return result, nil
}
