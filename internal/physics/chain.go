package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamo"
)

// Chain is the mutable state of one simulation run.
type Chain struct {
	n        int
	k, mass  float64
	rest     float64
	first    bool
	last     bool
	dt       float64
	pos      dynamo.State
	vel      dynamo.State
	disp     dynamo.State
	mid      dynamo.State
	acc      dynamo.State
	prevDisp dynamo.State
	elapsed  float64
	frame    int
}

// NewChain builds a chain from validated parameters and an initial state.
// The initial vectors are copied; the caller keeps ownership of init.
func NewChain(p *config.Params, init *config.InitialState, dt float64) (*Chain, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, dynamo.BoundsError("dt", dt, "> 0")
	}
	if err := init.Validate(p.OscillatorCount); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}

	n := p.OscillatorCount
	c := &Chain{
		n:        n,
		k:        p.SpringConstant,
		mass:     p.Mass,
		rest:     p.RestLength,
		first:    p.FirstOpen,
		last:     p.LastOpen,
		dt:       dt,
		pos:      dynamo.State(init.X).Clone(),
		vel:      dynamo.State(init.V).Clone(),
		disp:     dynamo.NewState(n),
		mid:      dynamo.NewState(n),
		acc:      dynamo.NewState(n),
		prevDisp: dynamo.NewState(n),
		frame:    1,
	}
	for i := range c.disp {
		c.disp[i] = c.pos[i] - float64(i)*c.rest
	}
	return c, nil
}

// Len is the number of oscillators.
func (c *Chain) Len() int { return c.n }

// Dt is the fixed time step of the run.
func (c *Chain) Dt() float64 { return c.dt }

// Time is the elapsed simulated time, dt per completed step.
func (c *Chain) Time() float64 { return c.elapsed }

// Frame is the 1-based index of the next step.
func (c *Chain) Frame() int { return c.frame }

// IsValid reports whether positions and velocities are all finite.
func (c *Chain) IsValid() bool { return c.pos.IsValid() && c.vel.IsValid() }

func (c *Chain) leftForce(d dynamo.State, i int) float64 {
	if i == 0 {
		return 0
	}
	if i == c.n-1 && !c.last {
		return 0
	}
	return -c.k * (d[i] - d[i-1])
}

func (c *Chain) rightForce(d dynamo.State, i int) float64 {
	if i == c.n-1 {
		return 0
	}
	if i == 0 && !c.first {
		return 0
	}
	return -c.k * (d[i] - d[i+1])
}

// LeftForce is the force the left spring exerts on oscillator i.
func (c *Chain) LeftForce(i int) float64 { return c.leftForce(c.disp, i) }

// RightForce is the force the right spring exerts on oscillator i.
func (c *Chain) RightForce(i int) float64 { return c.rightForce(c.disp, i) }

// NetForce is the sum of both spring forces on oscillator i.
func (c *Chain) NetForce(i int) float64 {
	return c.leftForce(c.disp, i) + c.rightForce(c.disp, i)
}

// Step advances every oscillator by one dt.
//
// The half-step velocity is bootstrapped from the true velocity on frame 1
// and afterwards accumulates a*dt every frame without being re-derived from
// the velocity.
func (c *Chain) Step() {
	copy(c.prevDisp, c.disp)

	dt := c.dt
	halfDt := 0.5 * dt
	bootstrap := c.frame == 1

	for i := 0; i < c.n; i++ {
		a := (c.leftForce(c.prevDisp, i) + c.rightForce(c.prevDisp, i)) / c.mass
		c.acc[i] = a

		if bootstrap {
			c.mid[i] = c.vel[i] + a*halfDt
		} else {
			c.mid[i] += a * dt
		}

		c.vel[i] = c.mid[i] - a*halfDt
		c.pos[i] += c.mid[i] * dt
		c.disp[i] = c.pos[i] - float64(i)*c.rest
	}

	c.elapsed += dt
	c.frame++
}

// Snapshot returns deep copies of the current vectors.
func (c *Chain) Snapshot() dynamo.Snapshot {
	return dynamo.Snapshot{
		Frame:         c.frame,
		Time:          c.elapsed,
		Positions:     c.pos.Clone(),
		Displacements: c.disp.Clone(),
		Velocities:    c.vel.Clone(),
		Accelerations: c.acc.Clone(),
	}
}

// MidVelocities returns a copy of the half-step velocity cache.
func (c *Chain) MidVelocities() dynamo.State {
	return c.mid.Clone()
}
