package httpdto

type Response[T any] struct {
	Success  bool              `json:"success"`
	Data     T                 `json:"data,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}

// NewValidationResponse carries one message per offending form field.
func NewValidationResponse(err string, fields map[string]string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    "VALIDATION_ERROR",
		Fields:  fields,
	}
}

// NewFailureResponse reports err while still returning the data to render.
func NewFailureResponse[T any](data T, err string, code string) Response[T] {
	return Response[T]{
		Success: false,
		Data:    data,
		Error:   err,
		Code:    code,
	}
}
