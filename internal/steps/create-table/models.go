// internal/steps/create-table/models.go
package createtable

type Output struct {
	Table string `json:"table"`
}
