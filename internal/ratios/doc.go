// Package ratios implements the decomposition and ratio modules: DuPont ROE
// decomposition, profitability ratios, valuation ratios, and cash-flow
// ratios. All flow-over-stock ratios divide by averaged balance-sheet
// figures, and every module degrades missing inputs to undefined cells
// rather than zeros.
package ratios
