package protocol

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidAction is returned when a touchpad body would violate the wire schema.
var ErrInvalidAction = errors.New("invalid touchpad action")

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(touchActionRules, TouchAction{})
	})
	return validate
}

// touchActionRules enforces the per-action field requirements that plain
// tags cannot express. A reset carries no session fields at all.
func touchActionRules(sl validator.StructLevel) {
	a := sl.Current().Interface().(TouchAction)
	if a.Action == ActionReset {
		return
	}

	if a.TouchID == "" {
		sl.ReportError(a.TouchID, "touch_id", "TouchID", "required", "")
	}
	if a.TouchCount < 1 {
		sl.ReportError(a.TouchCount, "touch_count", "TouchCount", "min", "1")
	}
	if a.Position == nil {
		sl.ReportError(a.Position, "position", "Position", "required", "")
	}

	switch a.Action {
	case ActionTouchStart, ActionTouchMove:
		if len(a.Touches) == 0 {
			sl.ReportError(a.Touches, "touches", "Touches", "min", "1")
		}
	case ActionTouchEnd:
		if len(a.Touches) != 0 {
			sl.ReportError(a.Touches, "touches", "Touches", "excluded_if", "action touch_end")
		}
	}
}

// Validate checks the body against the wire schema.
func (a *TouchAction) Validate() error {
	err := validatorInstance().Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: field %s failed %q", ErrInvalidAction, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidAction, err)
}
