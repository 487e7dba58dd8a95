package dto

// AdminDashboardResponse lists every course and the most recent log entries.
type AdminDashboardResponse struct {
	Courses    []CourseResponse    `json:"courses"`
	RecentLogs []ActionLogResponse `json:"recent_logs"`
}

// CourseRoster groups a course with its enrollments.
type CourseRoster struct {
	Course      CourseResponse       `json:"course"`
	Enrollments []EnrollmentResponse `json:"enrollments"`
}

// InstructorDashboardResponse lists the instructor's courses and rosters.
type InstructorDashboardResponse struct {
	Instructor InstructorResponse `json:"instructor"`
	Courses    []CourseRoster     `json:"courses"`
}

// StudentCourseView is a course as seen by a student.
type StudentCourseView struct {
	CourseResponse
	Enrolled  bool `json:"enrolled"`
	CanEnroll bool `json:"can_enroll"`
}

// StudentDashboardResponse lists every course and the student's enrollments.
type StudentDashboardResponse struct {
	Courses     []StudentCourseView  `json:"courses"`
	Enrollments []EnrollmentResponse `json:"enrollments"`
}
