// Package viz renders chain simulations in the terminal.
//
//   - [Summary]: lipgloss table of a batch's comparisons
//   - [SeriesPlot], [EnergyPlot]: asciigraph charts of stored runs
//   - [Canvas]: braille pixel canvas
//   - [LiveModel]: Bubble Tea program animating a chain
//
// # Key Bindings (live view)
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	+/-   - More/fewer steps per frame
//	T     - Cycle color themes
//	?     - Help overlay
//	Q     - Quit
package viz
