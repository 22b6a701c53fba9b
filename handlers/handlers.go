package handlers

type Response struct {
	Error string `json:"error"`
}

var (
	// Predefined errors
	OKResponse       = Response{}
	NotFoundResponse = Response{"video not found"}
	NopeResponse     = Response{"nope"}
	DBErrorResponse  = Response{"DB Error"}
)
