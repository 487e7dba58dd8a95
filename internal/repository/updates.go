package repository

import "github.com/noah-isme/enrollment-api/internal/models"

// ProfileUpdate is a partial profile patch. Nil fields are left untouched.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Empty reports whether the patch changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil
}

// Apply writes the patch onto profile.
func (u ProfileUpdate) Apply(profile *models.Profile) {
	if u.Name != nil {
		profile.Name = *u.Name
	}
	if u.Email != nil {
		profile.Email = *u.Email
	}
}

func (u ProfileUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	return updates
}

// StudentUpdate is a partial student patch.
type StudentUpdate struct {
	Name   *string
	Email  *string
	Status *string
}

// Empty reports whether the patch changes nothing.
func (u StudentUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Status == nil
}

// Apply writes the patch onto student.
func (u StudentUpdate) Apply(student *models.Student) {
	if u.Name != nil {
		student.Name = *u.Name
	}
	if u.Email != nil {
		student.Email = *u.Email
	}
	if u.Status != nil {
		student.Status = *u.Status
	}
}

func (u StudentUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	return updates
}

// InstructorUpdate is a partial instructor patch.
type InstructorUpdate struct {
	Name           *string
	Department     *string
	Title          *string
	Specialization *string
	OfficeHours    *string
	ContactEmail   *string
	Phone          *string
}

// Empty reports whether the patch changes nothing.
func (u InstructorUpdate) Empty() bool {
	return len(u.columns()) == 0
}

// Apply writes the patch onto instructor.
func (u InstructorUpdate) Apply(instructor *models.Instructor) {
	if u.Name != nil {
		instructor.Name = *u.Name
	}
	if u.Department != nil {
		instructor.Department = *u.Department
	}
	if u.Title != nil {
		instructor.Title = *u.Title
	}
	if u.Specialization != nil {
		instructor.Specialization = *u.Specialization
	}
	if u.OfficeHours != nil {
		instructor.OfficeHours = *u.OfficeHours
	}
	if u.ContactEmail != nil {
		instructor.ContactEmail = *u.ContactEmail
	}
	if u.Phone != nil {
		instructor.Phone = *u.Phone
	}
}

func (u InstructorUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Department != nil {
		updates["department"] = *u.Department
	}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Specialization != nil {
		updates["specialization"] = *u.Specialization
	}
	if u.OfficeHours != nil {
		updates["office_hours"] = *u.OfficeHours
	}
	if u.ContactEmail != nil {
		updates["contact_email"] = *u.ContactEmail
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	return updates
}

// CourseUpdate is a partial course patch. The enrollment counter is not
// patchable; it only moves with enrollment writes.
type CourseUpdate struct {
	Name           *string
	Code           *string
	Department     *string
	Description    *string
	MaxCapacity    *int
	InstructorID   *string
	InstructorName *string
}

// Empty reports whether the patch changes nothing.
func (u CourseUpdate) Empty() bool {
	return len(u.columns()) == 0
}

// Apply writes the patch onto course.
func (u CourseUpdate) Apply(course *models.Course) {
	if u.Name != nil {
		course.Name = *u.Name
	}
	if u.Code != nil {
		course.Code = *u.Code
	}
	if u.Department != nil {
		course.Department = *u.Department
	}
	if u.Description != nil {
		course.Description = *u.Description
	}
	if u.MaxCapacity != nil {
		course.MaxCapacity = *u.MaxCapacity
	}
	if u.InstructorID != nil {
		course.InstructorID = *u.InstructorID
	}
	if u.InstructorName != nil {
		course.InstructorName = *u.InstructorName
	}
}

func (u CourseUpdate) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Code != nil {
		updates["code"] = *u.Code
	}
	if u.Department != nil {
		updates["department"] = *u.Department
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.MaxCapacity != nil {
		updates["max_capacity"] = *u.MaxCapacity
	}
	if u.InstructorID != nil {
		updates["instructor_id"] = *u.InstructorID
	}
	if u.InstructorName != nil {
		updates["instructor_name"] = *u.InstructorName
	}
	return updates
}
