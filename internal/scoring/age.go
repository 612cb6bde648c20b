package scoring

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ReasonInvalidBirthDate = "invalid/future-dated birth date"

	birthDateLayout = "2006-01-02"
)

var errInvalidBirthDate = errors.New(ReasonInvalidBirthDate)

// AgeEvaluator bands the applicant's age by employment profile.
type AgeEvaluator struct{}

func (AgeEvaluator) Module() Module { return ModuleAge }

func (AgeEvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleAge)
	a := &req.Applicant

	age, err := applicantAge(a, req.AsOf)
	if err != nil {
		return b.stop(ReasonInvalidBirthDate)
	}
	b.detail("age", age)

	switch {
	case isSelfEmployed(a):
		if age >= 22 && age <= 65 {
			return b.note(fmt.Sprintf("self-employed applicant aged %d within 22-65", age)).ok(100)
		}
		return b.stop(fmt.Sprintf("self-employed applicant aged %d outside 22-65", age))

	case isRetired(a):
		if age < 20 || age > 61 {
			return b.stop(fmt.Sprintf("retired applicant aged %d outside 20-61", age))
		}
		if age < 60 {
			b.note("retired before 60")
		} else {
			b.note("retired at/near 60-61")
		}
		return b.ok(75)

	default:
		switch {
		case age >= 21 && age <= 60:
			return b.note(fmt.Sprintf("salaried applicant aged %d within 21-60", age)).ok(100)
		case age == 20 || age == 61:
			return b.note(fmt.Sprintf("salaried applicant aged %d at edge of band", age)).ok(80)
		}
		return b.stop(fmt.Sprintf("salaried applicant aged %d outside 20-61", age))
	}
}

// applicantAge prefers the date of birth and falls back to the reported age.
func applicantAge(a *ApplicantRecord, asOf time.Time) (int, error) {
	dob := strings.TrimSpace(a.DateOfBirth)
	if dob == "" {
		if a.Age < 0 {
			return 0, errInvalidBirthDate
		}
		return a.Age, nil
	}

	born, err := time.Parse(birthDateLayout, dob)
	if err != nil {
		if born, err = time.Parse(time.RFC3339, dob); err != nil {
			return 0, errInvalidBirthDate
		}
	}
	return ageAt(born, asOf)
}

func ageAt(born, asOf time.Time) (int, error) {
	by, bm, bd := born.Date()
	y, m, d := asOf.Date()
	if y < by || (y == by && (m < bm || (m == bm && d < bd))) {
		return 0, errInvalidBirthDate
	}
	age := y - by
	if m < bm || (m == bm && d < bd) {
		age--
	}
	return age, nil
}

func isSelfEmployed(a *ApplicantRecord) bool {
	return strings.Contains(strings.ToLower(a.Occupation), "self") ||
		strings.Contains(strings.ToLower(a.EmploymentType), "self")
}

func isRetired(a *ApplicantRecord) bool {
	return ParseBool(a.IsRetired) || strings.EqualFold(strings.TrimSpace(a.EmploymentType), "retired")
}
