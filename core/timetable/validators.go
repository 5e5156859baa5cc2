package timetable

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// InitValidators registers the timetable validations. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(newEntryStructValidation, NewEntry{})
}

// newEntryStructValidation requires a subject unless the entry is a lunch break.
func newEntryStructValidation(sl validator.StructLevel) {
	ne := sl.Current().Interface().(NewEntry)
	if !ne.IsLunchBreak && ne.Subject == "" {
		sl.ReportError(ne.Subject, "subject", "Subject", "required", "")
	}
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.clean()
	return validate.Struct(ne)
}

func (p *EntryPatch) Validate(validate *validator.Validate) error {
	p.clean()
	return validate.Struct(p)
}
