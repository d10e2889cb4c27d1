package models

// SubjectRevenue aggregates billed totals for a subject.
type SubjectRevenue struct {
	Subject string  `db:"subject" json:"subject"`
	Revenue float64 `db:"revenue" json:"revenue"`
	Count   int     `db:"count" json:"count"`
}

// DashboardStats is the headline snapshot shown on the home view.
type DashboardStats struct {
	TotalStudents    int              `json:"total_students"`
	TotalClasses     int              `json:"total_classes"`
	PaidStudents     int              `json:"paid_students"`
	UnpaidStudents   int              `json:"unpaid_students"`
	ExpiredPayments  int              `json:"expired_payments"`
	MonthlyRevenue   float64          `json:"monthly_revenue"`
	ExpectedRevenue  float64          `json:"expected_revenue"`
	RevenueBySubject []SubjectRevenue `json:"revenue_by_subject"`
}
