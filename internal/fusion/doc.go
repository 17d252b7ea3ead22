// Package fusion estimates signed driving acceleration from raw device
// sensor samples without any assumption about how the device is mounted.
//
// The engine learns the gravity vector and device orientation during a
// calibration phase, subtracts gravity and bias from each raw reading,
// smooths the result through the multistage filter chain, projects it onto
// the learned driving axis, and scores the reliability of every tick.
package fusion
