package repository

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/enrollment-api/internal/models"
)

//go:embed fixtures/demo_seed.json
var demoSeedFixture string

//go:embed fixtures/demo_seed.schema.json
var demoSeedSchema string

// DemoIdentities holds the sentinel identity id for each role.
type DemoIdentities struct {
	Admin      string
	Instructor string
	Student    string
}

// RoleOf reports which role a sentinel id stands for.
func (d DemoIdentities) RoleOf(id string) (models.Role, bool) {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return "", false
	case id == d.Admin:
		return models.RoleAdmin, true
	case id == d.Instructor:
		return models.RoleInstructor, true
	case id == d.Student:
		return models.RoleStudent, true
	}
	return "", false
}

// IDFor returns the sentinel id for role.
func (d DemoIdentities) IDFor(role models.Role) (string, bool) {
	switch role {
	case models.RoleAdmin:
		return d.Admin, d.Admin != ""
	case models.RoleInstructor:
		return d.Instructor, d.Instructor != ""
	case models.RoleStudent:
		return d.Student, d.Student != ""
	}
	return "", false
}

type demoSeed struct {
	Profiles    []models.Profile    `json:"profiles"`
	Instructors []models.Instructor `json:"instructors"`
	Students    []models.Student    `json:"students"`
	Courses     []models.Course     `json:"courses"`
	Enrollments []models.Enrollment `json:"enrollments"`
	ActionLogs  []models.ActionLog  `json:"action_logs"`
}

func (s demoSeed) tables() (map[string][]byte, error) {
	tables := map[string]interface{}{
		tableProfiles:    s.Profiles,
		tableInstructors: s.Instructors,
		tableStudents:    s.Students,
		tableCourses:     s.Courses,
		tableEnrollments: s.Enrollments,
		tableActionLogs:  s.ActionLogs,
	}

	encoded := make(map[string][]byte, len(tables))
	for name, rows := range tables {
		payload, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encode demo table %s: %w", name, err)
		}
		encoded[name] = payload
	}
	return encoded, nil
}

// loadDemoSeed resolves the sentinel placeholders in the embedded fixture and
// validates the result against its schema.
func loadDemoSeed(ids DemoIdentities, now time.Time) (demoSeed, error) {
	raw := strings.NewReplacer(
		"{{admin}}", ids.Admin,
		"{{instructor}}", ids.Instructor,
		"{{student}}", ids.Student,
	).Replace(demoSeedFixture)

	schema, err := jsonschema.CompileString("demo_seed.schema.json", demoSeedSchema)
	if err != nil {
		return demoSeed{}, fmt.Errorf("compile demo seed schema: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return demoSeed{}, fmt.Errorf("decode demo seed: %w", err)
	}
	if err := schema.Validate(document); err != nil {
		return demoSeed{}, fmt.Errorf("demo seed fixture invalid: %w", err)
	}

	var seed demoSeed
	if err := json.Unmarshal([]byte(raw), &seed); err != nil {
		return demoSeed{}, fmt.Errorf("decode demo seed: %w", err)
	}

	for i := range seed.Profiles {
		seed.Profiles[i].CreatedAt, seed.Profiles[i].UpdatedAt = now, now
	}
	for i := range seed.Instructors {
		seed.Instructors[i].CreatedAt, seed.Instructors[i].UpdatedAt = now, now
	}
	for i := range seed.Students {
		if seed.Students[i].Status == "" {
			seed.Students[i].Status = models.StudentStatusActive
		}
		seed.Students[i].CreatedAt, seed.Students[i].UpdatedAt = now, now
	}
	for i := range seed.Courses {
		seed.Courses[i].CreatedAt = now.Add(-time.Duration(len(seed.Courses)-i) * time.Minute)
		seed.Courses[i].UpdatedAt = now
	}
	for i := range seed.Enrollments {
		seed.Enrollments[i].EnrolledAt = now
		seed.Enrollments[i].LastAccessedAt = now
		seed.Enrollments[i].UpdatedAt = now
	}
	if seed.ActionLogs == nil {
		seed.ActionLogs = []models.ActionLog{}
	}

	return seed, nil
}
