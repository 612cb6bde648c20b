package scoring

import "time"

var testAsOf = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

func createTestRequest(a ApplicantRecord) *Request {
	return &Request{Applicant: a, AsOf: testAsOf}
}

// createStrongApplicant is a salaried ETB applicant that clears every module.
func createStrongApplicant() ApplicantRecord {
	return ApplicantRecord{
		ApplicationID:         "APP-1001",
		FullName:              "Ayesha Khan",
		CNIC:                  "42101-1234567-1",
		DateOfBirth:           "1990-05-10",
		EmploymentType:        "permanent",
		Occupation:            "Software Engineer",
		NetMonthlyIncome:      150000,
		GrossMonthlyIncome:    180000,
		EmploymentTenureYears: 6,
		IsExistingCustomer:    true,
		SalaryTransferFlag:    "salary_transfer",
		CurrentAddress:        Address{House: "House 14", Street: "Khayaban-e-Ittehad", District: "DHA Phase 6", City: "Karachi", PostalCode: "75500"},
		OfficeAddress:         Address{Street: "I.I. Chundrigar Road", City: "Karachi"},
		Cluster:               "FEDERAL",
		Blacklisted:           false,
		CreditCard30kList:     "no",
		NegativeList:          0,
		EAMVUSubmitted:        "Y",
	}
}

func createStrongObligations() *ObligationsInput {
	return &ObligationsInput{
		ExistingEMIs:    10000,
		CreditCardLimit: 200000,
	}
}
