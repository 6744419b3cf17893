package persona

import (
	"fmt"
	"strings"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
)

// Persona is a selectable historical-figure character: display metadata plus
// the system prompt that colors the model's replies.
type Persona struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Era         string `json:"era"`
	Description string `json:"description"`
	ImageUrl    string `json:"imageUrl"`
	Category    string `json:"category"`
	Prompt      string `json:"prompt"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

func (p *Persona) Validate() error {
	invalid := []string{}

	if len(p.Id) == 0 {
		invalid = append(invalid, "id")
	}

	if len(p.Name) == 0 {
		invalid = append(invalid, "name")
	}

	if len(p.Prompt) == 0 {
		invalid = append(invalid, "prompt")
	}

	if p.CreatedAt <= 0 {
		invalid = append(invalid, "createdAt")
	}

	if p.UpdatedAt <= 0 {
		invalid = append(invalid, "updatedAt")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

type UpdatePersona struct {
	Name        *string `json:"name"`
	Title       *string `json:"title"`
	Era         *string `json:"era"`
	Description *string `json:"description"`
	ImageUrl    *string `json:"imageUrl"`
	Category    *string `json:"category"`
	Prompt      *string `json:"prompt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

func (up *UpdatePersona) Validate() error {
	if up.Name != nil && len(*up.Name) == 0 {
		return internal_errors.NewValidationError("name can not be empty")
	}

	if up.Prompt != nil && len(*up.Prompt) == 0 {
		return internal_errors.NewValidationError("prompt can not be empty")
	}

	return nil
}
