package model

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// ParticipantPage is one page of the participant directory.
type ParticipantPage struct {
	Participants []Participant `json:"participants"`
	Pagination   Pagination    `json:"pagination"`
	Search       string        `json:"search,omitempty"`
}

// ParticipantDetail is a participant together with every enrollment.
type ParticipantDetail struct {
	Participant
	Enrollments []EnrollmentView `json:"enrollments"`
}

// CourseDetail is a course with its live seat numbers.
type CourseDetail struct {
	Course
	ActiveEnrollments int `json:"active_enrollments"`
	AvailableSpots    int `json:"available_spots"`
}

// EnrollResult is returned by a successful enrollment.
type EnrollResult struct {
	Enrollment     Enrollment `json:"enrollment"`
	CoursePrice    float64    `json:"course_price"`
	AvailableSpots int        `json:"available_spots"`
	TotalCapacity  int        `json:"total_capacity"`
	CourseIsFull   bool       `json:"course_is_full"`
}

// DashboardStats is the headline panel of the back office.
type DashboardStats struct {
	Courses           int     `json:"courses"`
	FullCourses       int     `json:"full_courses"`
	Participants      int     `json:"participants"`
	ActiveEnrollments int     `json:"active_enrollments"`
	PendingPayments   int     `json:"pending_payments"`
	Revenue           float64 `json:"revenue"`
}

// PaymentTotals sums final amounts by payment status.
type PaymentTotals struct {
	Revenue   float64 `json:"revenue"`
	Pending   float64 `json:"pending"`
	Paid      float64 `json:"paid"`
	Cancelled float64 `json:"cancelled"`
	Refunded  float64 `json:"refunded"`
	FreeCount int     `json:"free_count"`
}

// CourseRevenue is paid revenue for one course.
type CourseRevenue struct {
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"course_name"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
}

// CourseFinance breaks a course's enrollments down by payment situation.
type CourseFinance struct {
	CourseID       string  `json:"course_id"`
	CourseName     string  `json:"course_name"`
	Enrollments    int     `json:"enrollments"`
	Paying         int     `json:"paying"`
	NonPaying      int     `json:"non_paying"`
	WithoutPayment int     `json:"without_payment"`
	Revenue        float64 `json:"revenue"`
}

// FinanceReport is the finance page.
type FinanceReport struct {
	Totals          PaymentTotals   `json:"totals"`
	RevenueByCourse []CourseRevenue `json:"revenue_by_course"`
	Courses         []CourseFinance `json:"courses"`
}

// AttendanceStats summarises one participant's attendance in a course.
type AttendanceStats struct {
	ParticipantID   string  `json:"participant_id"`
	ParticipantName string  `json:"participant_name"`
	TotalClasses    int     `json:"total_classes"`
	Present         int     `json:"present"`
	Late            int     `json:"late"`
	Absent          int     `json:"absent"`
	Excused         int     `json:"excused"`
	Rate            float64 `json:"rate"`
}
