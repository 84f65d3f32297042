package sandbox

import (
	"fmt"
	"math/rand"
)

// SeedConfig controls the volume of generated synthetic data.
type SeedConfig struct {
	Doctors               int
	Patients              int
	InternationalPatients int
	Appointments          int
	Departments           int
	HealthCheckups        int
	News                  int
	Blogs                 int
	// Seed fixes the PRNG so repeated runs produce identical data.
	Seed int64
}

// DefaultSeedConfig returns sensible demo volumes.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Doctors:               12,
		Patients:              40,
		InternationalPatients: 15,
		Appointments:          35,
		Departments:           8,
		HealthCheckups:        6,
		News:                  10,
		Blogs:                 10,
		Seed:                  1,
	}
}

var (
	firstNames = []string{
		"Aarav", "Ananya", "Diya", "Ishaan", "Kavya", "Rohan", "Sanya",
		"Vikram", "Jane", "John", "Amina", "Omar", "Elena", "Marco",
		"Priya", "Arjun",
	}
	lastNames = []string{
		"Sharma", "Patel", "Iyer", "Khan", "Doe", "Roe", "Yusuf",
		"Rossi", "Petrova", "Mehta", "Nair", "Kapoor",
	}
	specialities = []string{
		"cardiology", "neurology", "oncology", "orthopedics",
		"pediatrics", "dermatology", "general medicine",
	}
	countries = []string{
		"Kenya", "Nigeria", "Bangladesh", "Nepal", "Oman", "Uzbekistan",
		"Tanzania", "Iraq",
	}
	patientStatuses     = []string{"Admitted", "Under Observation", "Discharged"}
	appointmentStatuses = []string{"Pending", "Confirmed", "Completed", "Cancelled"}
	departmentNames     = []string{
		"Cardiology", "Neurology", "Oncology", "Orthopedics", "Pediatrics",
		"Dermatology", "Radiology", "Emergency Medicine", "Urology",
		"Gastroenterology",
	}
	checkupTitles = []string{
		"Full Body Checkup", "Cardiac Screening", "Diabetes Panel",
		"Women's Health Package", "Senior Citizen Package", "Executive Checkup",
	}
	checkupTests = []string{
		"CBC", "Lipid Profile", "Liver Function Test", "Kidney Function Test",
		"Thyroid Profile", "HbA1c", "ECG", "Chest X-Ray", "Vitamin D",
	}
)

// seed populates every collection with reproducible synthetic records.
func (s *Server) seed(cfg SeedConfig) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	name := func() string {
		return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	}
	phone := func() string {
		return fmt.Sprintf("9%09d", rng.Intn(1_000_000_000))
	}
	date := func() string {
		return fmt.Sprintf("%02d/%02d/2025", 1+rng.Intn(28), 1+rng.Intn(12))
	}
	pick := func(vals []string) string {
		return vals[rng.Intn(len(vals))]
	}

	for i := 0; i < cfg.Departments && i < len(departmentNames); i++ {
		s.departments.insert(record{
			"department_name": departmentNames[i],
			"description":     "Department of " + departmentNames[i],
		})
	}

	for i := 0; i < cfg.Doctors; i++ {
		s.doctors.insert(record{
			"doctor_name":   "Dr. " + name(),
			"speciality":    pick(specialities),
			"qualification": pick([]string{"MBBS, MD", "MBBS, MS", "MBBS, DM"}),
			"experience":    fmt.Sprintf("%d years", 3+rng.Intn(25)),
			"status":        pick([]string{"Active", "On Leave"}),
		})
	}

	for i := 0; i < cfg.Patients; i++ {
		s.patients.insert(record{
			"patient_full_name": name(),
			"contact_number":    phone(),
			"age":               fmt.Sprintf("%d", 1+rng.Intn(90)),
			"gender":            pick([]string{"male", "female"}),
			"address":           fmt.Sprintf("%d MG Road", 1+rng.Intn(200)),
			"status":            pick(patientStatuses),
		})
	}

	for i := 0; i < cfg.InternationalPatients; i++ {
		s.internationalPatients.insert(record{
			"patient_full_name": name(),
			"age":               fmt.Sprintf("%d", 1+rng.Intn(90)),
			"contact_number":    phone(),
			"gender":            pick([]string{"male", "female"}),
			"country":           pick(countries),
			"speciality":        pick(specialities),
			"passport_number":   fmt.Sprintf("%c%07d", 'A'+rune(rng.Intn(26)), rng.Intn(10_000_000)),
			"appointment_date":  date(),
			"status":            pick(appointmentStatuses),
		})
	}

	for i := 0; i < cfg.Appointments; i++ {
		s.appointments.insert(record{
			"patient_full_name": name(),
			"contact_number":    phone(),
			"appointment_date":  date(),
			"speciality":        pick(specialities),
			"message":           "Requested via admin panel",
			"status":            pick(appointmentStatuses),
		})
	}

	for i := 0; i < cfg.HealthCheckups && i < len(checkupTitles); i++ {
		tests := make([]any, 0, 3)
		for j := 0; j < 3; j++ {
			tests = append(tests, map[string]any{"test_name": pick(checkupTests)})
		}
		original := 2000 + rng.Intn(6000)
		s.healthCheckups.insert(record{
			"checkup_title":  checkupTitles[i],
			"checkup_name":   fmt.Sprintf("checkup-%d", i+1),
			"original_price": fmt.Sprintf("%d", original),
			"discount_price": fmt.Sprintf("%d", original/2),
			"tests":          tests,
		})
	}

	for i := 0; i < cfg.News; i++ {
		s.news.insert(record{
			"title":        fmt.Sprintf("Hospital News #%d", i+1),
			"content":      "Synthetic news entry for the sandbox environment.",
			"category":     pick([]string{"announcement", "health-tips", "events"}),
			"published_at": date(),
		})
	}

	for i := 0; i < cfg.Blogs; i++ {
		s.blogs.insert(record{
			"title":    fmt.Sprintf("Health Blog #%d", i+1),
			"content":  "Synthetic blog entry for the sandbox environment.",
			"author":   "Dr. " + name(),
			"category": pick([]string{"wellness", "nutrition", "cardiology"}),
		})
	}
}
