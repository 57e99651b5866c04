package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	ex "tsa/data/extensions"
)

// annualization factors, periods per year
const (
	Daily     = 252
	Weekly    = 52
	Monthly   = 12
	Quarterly = 4
	Yearly    = 1
)

// FrequencyName gives the period noun for an annualization factor.
func FrequencyName(factor int) (string, error) {
	switch factor {
	case Daily:
		return "days", nil
	case Weekly:
		return "weeks", nil
	case Monthly:
		return "months", nil
	case Quarterly:
		return "quarters", nil
	case Yearly:
		return "years", nil
	default:
		return "", fmt.Errorf("%v is not a recognized frequency", factor)
	}
}

// GetCovarianceMatrix treats every inner slice as one variable's observations.
func GetCovarianceMatrix[T ex.Number](data [][]T) *mat.SymDense {
	returnMatrix := ArrToMatrix(data)
	covMatrix := mat.NewSymDense(len(data), nil)
	stat.CovarianceMatrix(covMatrix, returnMatrix, nil)
	return covMatrix
}

// GetCorrelationMatrix builds a correlation matrix from a covariance matrix so diagonal is 1.
// corr_ij = cov_ij / sqrt(cov_ii*cov_jj), a zero variance variable gives NaN.
func GetCorrelationMatrix(covMatrix *mat.SymDense) *mat.SymDense {
	n := covMatrix.SymmetricDim()
	corrMatrix := mat.NewSymDense(n, nil)

	for i := range n {
		for j := range i + 1 {
			corr := covMatrix.At(i, j) / math.Sqrt(covMatrix.At(i, i)*covMatrix.At(j, j))
			corrMatrix.SetSym(i, j, corr)
		}
	}

	return corrMatrix
}

// ArrToMatrix lays variables out as columns, observations as rows.
func ArrToMatrix[T ex.Number](data [][]T) *mat.Dense {
	nSymbols := len(data)
	nObservations := len(data[0])
	res := mat.NewDense(nObservations, nSymbols, nil)
	for j, col := range data {
		for i, row := range col {
			res.Set(i, j, float64(row))
		}
	}
	return res
}
