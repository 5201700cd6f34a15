// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/muesli/termenv"
	"github.com/siemens/reachdig/types"
)

var (
	upStyle      = termenv.Style{}.Foreground(termenv.ANSIGreen)
	downStyle    = termenv.Style{}.Foreground(termenv.ANSIRed)
	invalidStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	pendingStyle = termenv.Style{}.Faint()
)

var headingStyle = termenv.Style{}.Bold()

// statusStyle returns the style for rendering the specified status.
func statusStyle(status types.Status) termenv.Style {
	switch status {
	case types.Up, types.PotentiallyUp:
		return upStyle
	case types.Down, types.PotentiallyDown:
		return downStyle
	case types.Invalid:
		return invalidStyle
	}
	return pendingStyle
}
