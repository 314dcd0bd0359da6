// Package activity tracks monthly upload volume against the tracker's
// minimum-participation requirement and raises an alert when the month's
// projection first falls short.
package activity
