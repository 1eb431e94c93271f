// Package system provides the wall-clock Clock implementation.
package system

import "time"

// Clock returns the real current time.
type Clock struct{}

// Now returns time.Now().
func (Clock) Now() time.Time {
	return time.Now()
}
