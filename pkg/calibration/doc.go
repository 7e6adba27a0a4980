// Package calibration implements the curve fitting engine used to calibrate
// raw sensor output against reference standards. It contains:
//
//   - Standard, SensorReading and Point: the observation data model
//   - FitLinear and FitExponential: the least-squares solvers
//   - Session: the per-run point accumulator that produces Coefficients
//   - Correct and Corrector: applying Coefficients to new raw readings
//
// Nothing in this package is safe for concurrent use. A Session belongs to a
// single caller from the first Append to the last ComputeCoefficients.
package calibration
