package dto

type ModelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Speed       string `json:"speed"`
	Accuracy    string `json:"accuracy"`
	Default     bool   `json:"default"`
}

type ModelListResponse struct {
	Models []ModelResponse `json:"models"`
	Total  int             `json:"total"`
}
