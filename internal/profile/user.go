// Package profile describes the dashboard user and the per-user scope that
// isolates one user's records from another's.
package profile

import (
	"errors"
	"regexp"
	"strings"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var (
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrUnknownRole        = errors.New("unknown role")
)

// Hardcoded admin credentials. Not meant to be secure.
const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

var (
	Branches  = []string{"Computer Science", "Mechanical Engineering", "Electrical Engineering", "Civil Engineering", "Biotechnology"}
	Years     = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}
	Semesters = []string{"1st Sem", "2nd Sem", "3rd Sem", "4th Sem", "5th Sem", "6th Sem", "7th Sem", "8th Sem"}
)

// Matches what a browser treats as whitespace, including no-break and
// zero-width no-break spaces.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\p{Zl}\p{Zp}\x{FEFF}]+`)

// User is the logged-in profile.
type User struct {
	Name     string `json:"name"`
	Branch   string `json:"branch"`
	Year     string `json:"year"`
	Semester string `json:"semester"`
	Role     Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Scope returns the persistence namespace for the user: "admin" for the
// admin role, otherwise name-branch-year-semester with whitespace runs
// collapsed to "_" and lowercased.
func (u User) Scope() string {
	if u.IsAdmin() {
		return string(RoleAdmin)
	}
	id := u.Name + "-" + u.Branch + "-" + u.Year + "-" + u.Semester
	return strings.ToLower(whitespaceRun.ReplaceAllString(id, "_"))
}

// GroupKey is the timetable group the user belongs to. Empty for admins.
func (u User) GroupKey() string {
	if u.IsAdmin() {
		return ""
	}
	return u.Branch + "-" + u.Year + "-" + u.Semester
}

// StudentLogin builds a student profile. Only the name is required.
func StudentLogin(name, branch, year, semester string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, ErrNameRequired
	}
	return User{
		Name:     name,
		Branch:   branch,
		Year:     year,
		Semester: semester,
		Role:     RoleStudent,
	}, nil
}

// AdminLogin checks the fixed admin credentials.
func AdminLogin(username, password string) (User, error) {
	if strings.ToLower(strings.TrimSpace(username)) != adminUsername || strings.TrimSpace(password) != adminPassword {
		return User{}, ErrInvalidCredentials
	}
	return User{Name: "Admin", Role: RoleAdmin}, nil
}
