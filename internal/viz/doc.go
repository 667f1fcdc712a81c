// Package viz renders polygon runs in the terminal and as SVG.
//
//   - [Canvas]: braille sub-pixel canvas with world-to-pixel path plotting
//   - [LiveModel]: Bubble Tea program that steps a session frame by frame
//   - [PathToSVG]: travelled path over the ideal polygon outline
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the start pose
//	Q     - Quit
package viz
