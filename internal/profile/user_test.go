package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{
			name: "admin",
			user: User{Name: "Admin", Role: RoleAdmin},
			want: "admin",
		},
		{
			name: "student",
			user: User{Name: "Asha Rao", Branch: "Computer Science", Year: "2nd Year", Semester: "3rd Sem", Role: RoleStudent},
			want: "asha_rao-computer_science-2nd_year-3rd_sem",
		},
		{
			name: "whitespace runs collapse",
			user: User{Name: "  Ravi \t Kumar", Branch: "Biotechnology", Year: "1st Year", Semester: "1st Sem", Role: RoleStudent},
			want: "_ravi_kumar-biotechnology-1st_year-1st_sem",
		},
		{
			name: "unicode spaces collapse",
			user: User{Name: "Asha\u00a0Rao\ufeff", Branch: "Computer\u2003Science", Year: "2nd Year", Semester: "3rd Sem", Role: RoleStudent},
			want: "asha_rao_-computer_science-2nd_year-3rd_sem",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Scope())
		})
	}
}

func TestGroupKey(t *testing.T) {
	u := User{Name: "Asha", Branch: "Civil Engineering", Year: "4th Year", Semester: "8th Sem", Role: RoleStudent}
	assert.Equal(t, "Civil Engineering-4th Year-8th Sem", u.GroupKey())

	admin := User{Name: "Admin", Role: RoleAdmin}
	assert.Empty(t, admin.GroupKey())
}

func TestStudentLogin(t *testing.T) {
	_, err := StudentLogin("   ", Branches[0], Years[0], Semesters[0])
	assert.ErrorIs(t, err, ErrNameRequired)

	u, err := StudentLogin("Asha", Branches[0], Years[0], Semesters[0])
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, u.Role)
	assert.False(t, u.IsAdmin())
}

func TestAdminLogin(t *testing.T) {
	u, err := AdminLogin("  ADMIN ", " admin123 ")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Admin", u.Name)

	_, err = AdminLogin("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = AdminLogin("root", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
