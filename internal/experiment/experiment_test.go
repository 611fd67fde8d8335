package experiment_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/experiment"
)

type frameCounter struct{ frames int }

func (c *frameCounter) OnFrame(dynamo.Snapshot) { c.frames++ }

func presetExperiment(name string, opts ...experiment.Option) *experiment.Experiment {
	preset := config.GetPreset(name)
	Expect(preset).NotTo(BeNil())
	e, err := experiment.New(&preset.Params, preset.State(), opts...)
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Experiment", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("New", func() {
		It("rejects a state of the wrong length", func() {
			p := config.GetPreset("single").Params
			_, err := experiment.New(&p, &config.InitialState{X: []float64{0, 1}, V: []float64{0, 0}})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("rejects invalid parameters", func() {
			p := config.GetPreset("single").Params
			p.Mass = 0
			_, err := experiment.New(&p, config.EquilibriumState(&p))
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("does not alias the caller's parameters", func() {
			p := config.GetPreset("single").Params.Clone()
			e, err := experiment.New(p, config.EquilibriumState(p))
			Expect(err).NotTo(HaveOccurred())
			p.Frames[0] = 1
			Expect(e.Params().Frames[0]).NotTo(Equal(1))
		})
	})

	Describe("a single trapped mass", func() {
		var report *experiment.Report

		BeforeEach(func() {
			var err error
			report, err = presetExperiment("single").Run(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports every run in input order", func() {
			p := config.GetPreset("single").Params
			Expect(report.Runs).To(HaveLen(len(p.Frames)))
			for i, rr := range report.Runs {
				Expect(rr.Index).To(Equal(i + 1))
				Expect(rr.Dt).To(Equal(p.Dts[i]))
				Expect(rr.Trajectory.Len()).To(Equal(p.Frames[i]))
				Expect(rr.Energies.Len()).To(Equal(p.Frames[i]))
			}
		})

		It("recovers the analytic frequency", func() {
			for _, rr := range report.Runs {
				Expect(rr.Frequency).NotTo(BeNil())
				Expect(rr.Frequency.Analytic).To(BeNumerically("~", 1.41421356, 1e-6))
				rel, ok := rr.Frequency.RelativeError.Get()
				Expect(ok).To(BeTrue())
				Expect(rel).To(BeNumerically("<", 0.02))
			}
		})

		It("keeps the energy bounded for the smallest step", func() {
			Expect(report.Runs[0].EnergyDrift).To(BeNumerically("<", 0.05))
		})

		It("skips the wave speed on a short clamped chain", func() {
			for _, rr := range report.Runs {
				Expect(rr.WaveSpeed).To(BeNil())
			}
		})
	})

	Describe("a standing wave", func() {
		It("oscillates at the fundamental mode frequency", func() {
			report, err := presetExperiment("standing").Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			for _, rr := range report.Runs {
				est, ok := rr.Frequency.Estimated.Get()
				Expect(ok).To(BeTrue())
				Expect(est).To(BeNumerically("~", rr.Frequency.Analytic, 0.02*rr.Frequency.Analytic))

				spectral, ok := rr.SpectralFrequency.Get()
				Expect(ok).To(BeTrue())
				Expect(spectral).To(BeNumerically("~", rr.Frequency.Analytic, 0.05))
			}
		})
	})

	Describe("a pulse on a long free chain", func() {
		It("times the wavefront at the far end", func() {
			e := presetExperiment("pulse")
			rr, err := e.RunOne(ctx, e.Params().Runs()[0])
			Expect(err).NotTo(HaveOccurred())

			Expect(rr.Frequency).To(BeNil())
			Expect(rr.WaveSpeed).NotTo(BeNil())
			Expect(rr.WaveSpeed.Analytic).To(Equal(analysis.AnalyticWaveSpeed(e.Params())))
			Expect(rr.WaveSpeed.Detected).To(BeTrue())
			Expect(rr.WaveSpeed.ArrivalTime).To(BeNumerically(">", 0))

			measured, ok := rr.WaveSpeed.Estimated.Get()
			Expect(ok).To(BeTrue())
			Expect(measured).To(BeNumerically(">", 0))
		})
	})

	Describe("failures", func() {
		It("stops an unstable run", func() {
			p := config.GetPreset("single").Params.Clone()
			p.Frames, p.Dts = []int{1000, 100}, []float64{10, 0.01}
			e, err := experiment.New(p, config.GetPreset("single").State())
			Expect(err).NotTo(HaveOccurred())

			report, err := e.Run(ctx)
			Expect(err).To(MatchError(dynamo.ErrUnstable))
			Expect(report.Runs).To(BeEmpty())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Frame).To(BeNumerically(">", 1))
		})

		It("runs an unstable step size to the end without validation", func() {
			p := config.GetPreset("single").Params.Clone()
			p.Frames, p.Dts = []int{50}, []float64{10}
			e, err := experiment.New(p, config.GetPreset("single").State(), experiment.WithoutValidation())
			Expect(err).NotTo(HaveOccurred())

			report, err := e.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Runs).To(HaveLen(1))
		})

		It("honours cancellation", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := presetExperiment("single").Run(cancelled)
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("options", func() {
		It("feeds every frame to the observers", func() {
			counter := &frameCounter{}
			_, err := presetExperiment("single", experiment.WithObserver(counter)).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			total := 0
			for _, f := range config.GetPreset("single").Params.Frames {
				total += f
			}
			Expect(counter.frames).To(Equal(total))
		})

		It("logs each finished run", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			_, err := presetExperiment("single", experiment.WithLogger(zap.New(core))).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			finished := logs.FilterMessage("run finished")
			Expect(finished.Len()).To(Equal(len(config.GetPreset("single").Params.Frames)))
			Expect(finished.All()[0].ContextMap()).To(HaveKeyWithValue("run", int64(1)))
		})
	})
})
