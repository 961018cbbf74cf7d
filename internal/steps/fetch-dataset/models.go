// internal/steps/fetch-dataset/models.go
package fetchdataset

type Input struct {
	URL        string `json:"url"`
	DestFolder string `json:"destFolder"`
	FileName   string `json:"fileName"`
}

type Output struct {
	Path       string `json:"path"`
	Bytes      int64  `json:"bytes"`
	StatusCode int    `json:"statusCode"`
}
