// Package scoring implements the risk scoring modules: Altman Z-Score,
// Beneish M-Score, and the Benford's-law digit-distribution check. Each
// module consumes an aligned statement set and produces a per-period score
// plus classification; scores degrade to undefined cells when inputs are
// missing and fail with InsufficientData only when no period is computable.
package scoring
