package loadrows

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const csvHeader = "RowNumber,CustomerId,Surname,CreditScore,Geography,Gender,Age,Tenure,Balance,NumOfProducts,HasCrCard,IsActiveMember,EstimatedSalary,Exited"

const hargraveLine = "1,15634602,Hargrave,619,France,Female,42,2,0.0,1,1,1,101348.88,1"

func churnLine(rowNumber int) string {
	return fmt.Sprintf("%d,%d,Surname%d,600,Spain,Male,30,3,1250.5,2,1,0,50000.25,0",
		rowNumber, 15600000+rowNumber, rowNumber)
}

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "churn_modelling.csv")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
