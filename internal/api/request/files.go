package request

type WriteFile struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

type CreateDirectory struct {
	Path string `json:"path" validate:"required"`
}
