// Command seed loads a demo school into an empty database. It does nothing when a
// school already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/repository"
	"github.com/nacca-sms/nacca-sms-api/pkg/config"
	"github.com/nacca-sms/nacca-sms-api/pkg/database"
	"github.com/nacca-sms/nacca-sms-api/pkg/logger"
)

const schoolCode = 1

type seeder struct {
	terms         *repository.TermRepository
	staff         *repository.StaffRepository
	classes       *repository.ClassRepository
	subjects      *repository.SubjectRepository
	classSubjects *repository.ClassSubjectRepository
	users         *repository.UserRepository
	students      *repository.StudentRepository
	fees          *repository.FeeRepository
	logger        *zap.Logger
}

type staffSeed struct {
	first, last, gender, position, email, password string
	role                                           models.UserRole
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect postgres", zap.String("dsn", database.Redacted(cfg.Database)), zap.Error(err))
	}
	defer db.Close()

	s := &seeder{
		terms:         repository.NewTermRepository(db),
		staff:         repository.NewStaffRepository(db),
		classes:       repository.NewClassRepository(db),
		subjects:      repository.NewSubjectRepository(db),
		classSubjects: repository.NewClassSubjectRepository(db),
		users:         repository.NewUserRepository(db),
		students:      repository.NewStudentRepository(db),
		fees:          repository.NewFeeRepository(db),
		logger:        logr,
	}
	if err := s.run(ctx); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
}

func (s *seeder) run(ctx context.Context) error {
	existing, err := s.terms.CountSchools(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		s.logger.Info("database already seeded, skipping")
		return nil
	}

	school := &models.School{
		Code:    schoolCode,
		Name:    "Sasu Academy",
		Motto:   strPtr("Excellence Through Knowledge"),
		Address: strPtr("123 Education Lane, Accra"),
		Phone:   strPtr("+233 24 123 4567"),
		Email:   strPtr("info@sasuacademy.edu.gh"),
		Active:  true,
	}
	if err := s.terms.CreateSchool(ctx, school); err != nil {
		return err
	}

	year := &models.AcademicYear{
		SchoolID:  school.ID,
		Name:      "2025/2026",
		StartDate: date(2025, time.September, 1),
		EndDate:   date(2026, time.July, 31),
		IsCurrent: true,
	}
	if err := s.terms.CreateYear(ctx, year); err != nil {
		return err
	}
	terms := []models.Term{
		{Name: "First Term", TermNumber: 1, StartDate: date(2025, time.September, 1), EndDate: date(2025, time.December, 20), IsCurrent: true},
		{Name: "Second Term", TermNumber: 2, StartDate: date(2026, time.January, 10), EndDate: date(2026, time.April, 10)},
		{Name: "Third Term", TermNumber: 3, StartDate: date(2026, time.May, 1), EndDate: date(2026, time.July, 31)},
	}
	for i := range terms {
		terms[i].AcademicYearID = year.ID
		if err := s.terms.CreateTerm(ctx, &terms[i]); err != nil {
			return err
		}
	}

	for _, d := range [][2]string{{"Sciences", "SCI"}, {"Arts", "ART"}, {"Languages", "LANG"}, {"Mathematics", "MATH"}} {
		department := &models.Department{SchoolID: school.ID, Name: d[0], Code: strPtr(d[1]), Active: true}
		if err := s.staff.CreateDepartment(ctx, department); err != nil {
			return err
		}
	}

	subjects := []models.Subject{
		{Name: "English Language", Code: strPtr("ENG"), IsCore: true},
		{Name: "Mathematics", Code: strPtr("MATH"), IsCore: true},
		{Name: "Integrated Science", Code: strPtr("SCI"), IsCore: true},
		{Name: "Social Studies", Code: strPtr("SOC"), IsCore: true},
		{Name: "Ghanaian Language (Twi)", Code: strPtr("TWI"), IsCore: true},
		{Name: "French", Code: strPtr("FRE")},
		{Name: "ICT", Code: strPtr("ICT"), IsCore: true},
		{Name: "Creative Arts", Code: strPtr("CRA"), IsCore: true},
		{Name: "Religious & Moral Education", Code: strPtr("RME"), IsCore: true},
		{Name: "Physical Education", Code: strPtr("PE")},
	}
	for i := range subjects {
		subjects[i].SchoolID = school.ID
		subjects[i].Active = true
		if err := s.subjects.Create(ctx, &subjects[i]); err != nil {
			return err
		}
	}

	staff := []staffSeed{
		{"Kwame", "Asante", "male", "Headteacher", "headteacher@sasuacademy.edu.gh", "admin123", models.RoleHeadteacher},
		{"Ama", "Mensah", "female", "Administrator", "admin@sasuacademy.edu.gh", "admin123", models.RoleAdmin},
		{"Kofi", "Owusu", "male", "Class Teacher", "teacher@sasuacademy.edu.gh", "teacher123", models.RoleTeacher},
		{"Abena", "Darko", "female", "Accounts Officer", "accounts@sasuacademy.edu.gh", "accounts123", models.RoleAccountsOfficer},
	}
	var teacherID string
	for i, seed := range staff {
		member, err := s.createStaff(ctx, school, i+1, seed)
		if err != nil {
			return err
		}
		if seed.role == models.RoleTeacher {
			teacherID = member.ID
		}
	}

	var classes []models.Class
	for grade := 1; grade <= 6; grade++ {
		classes = append(classes, newClass(school.ID, fmt.Sprintf("Primary %dA", grade), "PRIMARY", grade, 35))
	}
	for grade := 1; grade <= 3; grade++ {
		classes = append(classes, newClass(school.ID, fmt.Sprintf("JHS %dA", grade), "JHS", grade, 40))
	}
	homeClass := &classes[5]
	homeClass.ClassTeacherID = &teacherID
	for i := range classes {
		if err := s.classes.Create(ctx, &classes[i]); err != nil {
			return err
		}
	}

	categories := []models.FeeCategory{
		{Name: "Tuition Fee", IsRecurring: true},
		{Name: "Examination Fee", IsRecurring: true},
		{Name: "ICT Fee", IsRecurring: true},
		{Name: "PTA Dues", IsRecurring: true},
		{Name: "Development Levy"},
	}
	for i := range categories {
		categories[i].SchoolID = school.ID
		categories[i].Active = true
		if err := s.fees.CreateCategory(ctx, &categories[i]); err != nil {
			return err
		}
	}
	for _, class := range classes {
		tuition := 500.0
		if class.Level == "JHS" {
			tuition = 800
		}
		for i, amount := range []float64{tuition, 50, 30} {
			structure := &models.FeeStructure{
				SchoolID:       school.ID,
				ClassID:        class.ID,
				AcademicYearID: year.ID,
				FeeCategoryID:  categories[i].ID,
				Amount:         amount,
			}
			if err := s.fees.CreateStructure(ctx, structure); err != nil {
				return err
			}
		}
	}

	assignments := make([]models.ClassSubject, 0, 7)
	for _, subject := range subjects[:7] {
		assignments = append(assignments, models.ClassSubject{SubjectID: subject.ID, TeacherID: &teacherID})
	}
	if err := s.classSubjects.ReplaceForClass(ctx, homeClass.ID, year.ID, assignments); err != nil {
		return err
	}

	if err := s.createStudents(ctx, school, year, homeClass); err != nil {
		return err
	}

	s.logger.Info("database seeded",
		zap.String("school", school.Name),
		zap.Int("classes", len(classes)),
		zap.Int("subjects", len(subjects)))
	return nil
}

func (s *seeder) createStaff(ctx context.Context, school *models.School, seq int, seed staffSeed) (*models.Staff, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	employed := date(2015, time.September, 1)
	member := &models.Staff{
		SchoolID:     school.ID,
		StaffNumber:  fmt.Sprintf("STF%03d%04d", school.Code, seq),
		FirstName:    seed.first,
		LastName:     seed.last,
		Gender:       seed.gender,
		Email:        strPtr(seed.email),
		Position:     strPtr(seed.position),
		DateEmployed: &employed,
		Active:       true,
	}
	user := &models.User{
		SchoolID:     school.ID,
		Email:        seed.email,
		PasswordHash: string(hash),
		Role:         seed.role,
		Active:       true,
	}
	if err := s.staff.CreateWithLogin(ctx, member, user); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *seeder) createStudents(ctx context.Context, school *models.School, year *models.AcademicYear, class *models.Class) error {
	samples := []struct {
		first, last, gender string
		born                time.Time
	}{
		{"Kweku", "Appiah", "male", date(2015, time.March, 15)},
		{"Adwoa", "Boateng", "female", date(2015, time.July, 22)},
		{"Yaw", "Frimpong", "male", date(2014, time.November, 8)},
		{"Akosua", "Osei", "female", date(2015, time.January, 30)},
		{"Kofi", "Mensah", "male", date(2014, time.September, 5)},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("parent123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admitted := date(2024, time.September, 1)
	for i, sample := range samples {
		email := fmt.Sprintf("parent%d@sasuacademy.edu.gh", i+1)
		fatherPhone := fmt.Sprintf("024%d000000", i+1)
		parent := &models.Parent{
			SchoolID:            school.ID,
			FatherName:          strPtr("Mr. " + sample.last),
			FatherPhone:         strPtr(fatherPhone),
			FatherEmail:         strPtr(email),
			MotherName:          strPtr("Mrs. " + sample.last),
			MotherPhone:         strPtr(fmt.Sprintf("024%d111111", i+1)),
			Address:             strPtr("123 Main Street, Accra"),
			PrimaryContactPhone: strPtr(fatherPhone),
		}
		student := &models.Student{
			SchoolID:      school.ID,
			StudentNumber: fmt.Sprintf("STU%03d%04d", school.Code, i+1),
			FirstName:     sample.first,
			LastName:      sample.last,
			Gender:        sample.gender,
			DateOfBirth:   sample.born,
			Nationality:   "Ghanaian",
			AdmissionDate: admitted,
			Status:        models.StudentStatusActive,
		}
		enrollment := &models.Enrollment{ClassID: class.ID, AcademicYearID: year.ID, EnrollmentDate: admitted}
		if err := s.students.CreateAdmission(ctx, parent, student, enrollment); err != nil {
			return err
		}
		account := &models.User{
			SchoolID:     school.ID,
			Email:        email,
			PasswordHash: string(hash),
			Role:         models.RoleParent,
			Active:       true,
			ParentID:     &parent.ID,
		}
		if err := s.users.Create(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

func newClass(schoolID, name, level string, grade, capacity int) models.Class {
	return models.Class{
		SchoolID:    schoolID,
		Name:        name,
		Level:       level,
		GradeNumber: &grade,
		Section:     strPtr("A"),
		Capacity:    capacity,
		Active:      true,
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func strPtr(v string) *string {
	return &v
}
