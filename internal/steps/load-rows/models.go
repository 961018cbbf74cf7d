// internal/steps/load-rows/models.go
package loadrows

type Input struct {
	Path string `json:"path"`
}

type Output struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}
