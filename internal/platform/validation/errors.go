package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// ErrorBody is the error payload returned for rejected requests. Fields is
// only populated for struct validation failures.
type ErrorBody struct {
	Kind    errs.Kind           `json:"kind"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// ErrorResponse converts err into a structured response.
func ErrorResponse(err error) ErrorBody {
	body := ErrorBody{Kind: errs.KindOf(err), Message: errs.PublicMessage(err)}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = map[string][]string{}
		for _, fe := range verrs {
			body.Fields[fe.Field()] = append(body.Fields[fe.Field()], fe.Tag())
		}
	}
	return body
}
