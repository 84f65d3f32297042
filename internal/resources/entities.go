package resources

// Entities are transport-level views of backend records: only the fields
// the admin screens read (identifiers, display columns, filter facets)
// are mapped; everything else passes through the backend untouched.

// Appointment is a booked or requested appointment.
type Appointment struct {
	ID              string `json:"id"`
	PatientFullName string `json:"patient_full_name"`
	ContactNumber   string `json:"contact_number"`
	AppointmentDate string `json:"appointment_date"`
	Speciality      string `json:"speciality,omitempty"`
	Message         string `json:"message,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Patient is a domestic patient record.
type Patient struct {
	ID              string `json:"id"`
	PatientFullName string `json:"patient_full_name"`
	ContactNumber   string `json:"contact_number"`
	Age             string `json:"age,omitempty"`
	Gender          string `json:"gender,omitempty"`
	Address         string `json:"address,omitempty"`
	Status          string `json:"status,omitempty"`
}

// InternationalPatient extends the patient record with travel fields.
type InternationalPatient struct {
	ID              string `json:"id"`
	PatientFullName string `json:"patient_full_name"`
	Age             string `json:"age"`
	ContactNumber   string `json:"contact_number"`
	Gender          string `json:"gender"`
	Country         string `json:"country"`
	Speciality      string `json:"speciality"`
	PassportNumber  string `json:"passport_number"`
	AppointmentDate string `json:"appointment_date"`
	Status          string `json:"status,omitempty"`
}

// Doctor is a practitioner profile.
type Doctor struct {
	ID            string `json:"id"`
	DoctorName    string `json:"doctor_name"`
	Speciality    string `json:"speciality"`
	Qualification string `json:"qualification,omitempty"`
	Experience    string `json:"experience,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Department is a hospital department.
type Department struct {
	ID             string `json:"id"`
	DepartmentName string `json:"department_name"`
	Description    string `json:"description,omitempty"`
}

// CheckupTest is one test inside a health-checkup package.
type CheckupTest struct {
	TestName string `json:"test_name"`
}

// HealthCheckup is a priced package of tests.
type HealthCheckup struct {
	ID            string        `json:"id"`
	CheckupTitle  string        `json:"checkup_title"`
	CheckupName   string        `json:"checkup_name"`
	OriginalPrice string        `json:"original_price"`
	DiscountPrice string        `json:"discount_price"`
	Tests         []CheckupTest `json:"tests,omitempty"`
}

// NewsItem is a published news entry.
type NewsItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	Category    string `json:"category,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// BlogPost is a published blog entry.
type BlogPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category,omitempty"`
}

// LabReport is an uploaded lab-report file attached to a patient.
type LabReport struct {
	ID         string `json:"id"`
	PatientID  string `json:"patient_id"`
	ReportName string `json:"report_name"`
	FileName   string `json:"file_name"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

// Prescription is an uploaded prescription file attached to a patient.
type Prescription struct {
	ID         string `json:"id"`
	PatientID  string `json:"patient_id"`
	Title      string `json:"title"`
	FileName   string `json:"file_name"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}
